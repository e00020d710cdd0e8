// internal/monitor/cycle.go
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/common/log"

	"github.com/tamzrod/amc-monitor/internal/errcode"
)

// Outcome is the result of fetching one table.
type Outcome struct {
	Table  string
	Points int
	Took   time.Duration
	Err    error
}

// OK reports whether the fetch committed.
func (o Outcome) OK() bool { return o.Err == nil }

// Report is the result of one cycle.
type Report struct {
	Seq      uint64
	At       time.Time
	Took     time.Duration
	Outcomes []Outcome
	Snapshot Snapshot
}

// Failed lists the tables whose fetch failed.
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Err joins all table failures, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", o.Table, o.Err))
	}
	return errors.Join(errs...)
}

// FirstCode returns the error code of the first failed table, or errcode.OK.
func (r Report) FirstCode() errcode.Code {
	for _, o := range r.Outcomes {
		if o.Err != nil {
			return errcode.Of(o.Err)
		}
	}
	return errcode.OK
}

// Cycle refreshes every table of a registry once per Run.
type Cycle struct {
	reg *Registry
	log log.Logger
	seq uint64
	now func() time.Time
}

// NewCycle binds a cycle to its registry.
func NewCycle(reg *Registry, logger log.Logger) *Cycle {
	if logger == nil {
		logger = log.Base()
	}
	return &Cycle{reg: reg, log: logger, now: time.Now}
}

// Run fetches every table in declaration order. A failing table is recorded
// and logged; the remaining tables still run. The snapshot is rebuilt after
// all fetches so labels match the last committed raw values.
func (c *Cycle) Run(ctx context.Context) Report {
	c.seq++
	start := c.now()
	rep := Report{Seq: c.seq, At: start}

	for _, name := range c.reg.Tables() {
		t0 := c.now()
		batch, err := c.reg.FetchTable(ctx, name)
		o := Outcome{Table: name, Points: len(batch.Values), Took: c.now().Sub(t0), Err: err}
		if err != nil {
			c.log.With("table", name).Errorf("%s update failed: %v", name, err)
		}
		rep.Outcomes = append(rep.Outcomes, o)
	}

	rep.Snapshot = c.reg.Snapshot()
	rep.Took = c.now().Sub(start)

	if n := len(rep.Failed()); n > 0 {
		c.log.Warnf("cycle %d: %d of %d tables failed", rep.Seq, n, len(rep.Outcomes))
	} else {
		c.log.Debugf("cycle %d: %d tables in %s", rep.Seq, len(rep.Outcomes), rep.Took)
	}
	return rep
}
