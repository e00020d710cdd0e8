// internal/writer/types.go
package writer

import (
	"context"

	"github.com/tamzrod/amc-monitor/internal/poller"
	"github.com/tamzrod/amc-monitor/internal/status"
)

// Update is one board state handed to the sinks after a poll.
type Update struct {
	Result poller.PollResult
	Status status.Snapshot
}

// Writer delivers poll updates to one sink.
type Writer interface {
	Write(ctx context.Context, u Update) error
}

// StatusPlan locates one board's status block.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	Slot       uint16
	DeviceName string
}

// RegisterClient is the exact contract the status writer uses.
type RegisterClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
