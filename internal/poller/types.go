// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/amc-monitor/internal/monitor"
	"github.com/tamzrod/amc-monitor/internal/status"
)

// PollResult is what one poll cycle produced for one board.
type PollResult struct {
	BoardID string
	At      time.Time

	// Report holds the per-table outcomes and the rebuilt snapshot.
	Report monitor.Report

	// Connectivity as last seen by the register bus. Zero when the board
	// has no register bus configured. LinkMask is zero while not connected.
	HasDevice bool
	Connected bool
	LinkMask  uint32

	// Err is a board-level failure (connectivity refresh). Table failures
	// live in Report.
	Err error
}

// Observation folds the result into what the health tracker needs.
func (r PollResult) Observation() status.Observation {
	o := status.Observation{
		Err:           r.Err,
		DeviceDown:    r.HasDevice && !r.Connected,
		TotalTables:   len(r.Report.Outcomes),
		LinkMask:      r.LinkMask,
		UnknownPoints: r.Report.Snapshot.Unknown(),
		Seq:           r.Report.Seq,
	}
	for _, f := range r.Report.Failed() {
		if o.TableErr == nil {
			o.TableErr = f.Err
		}
		o.FailedTables++
	}
	return o
}
