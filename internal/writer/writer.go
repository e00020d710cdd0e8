// internal/writer/writer.go
package writer

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type fanout struct {
	sinks []Writer
}

// New returns a Writer that delivers every update to all sinks in order.
// A failing sink does not stop the others; failures are joined.
func New(sinks ...Writer) Writer {
	var live []Writer
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return &fanout{sinks: live}
}

func (w *fanout) Write(ctx context.Context, u Update) error {
	var errs []string

	for i, s := range w.sinks {
		if err := s.Write(ctx, u); err != nil {
			errs = append(errs, fmt.Sprintf("sink %d (%T): %v", i, s, err))
		}
	}

	if len(errs) > 0 {
		return errors.New("writer: " + strings.Join(errs, " | "))
	}
	return nil
}
