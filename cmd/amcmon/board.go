// cmd/amcmon/board.go
package main

import (
	"context"
	"time"

	"github.com/prometheus/common/log"

	"github.com/tamzrod/amc-monitor/internal/poller"
	"github.com/tamzrod/amc-monitor/internal/report"
	"github.com/tamzrod/amc-monitor/internal/status"
	"github.com/tamzrod/amc-monitor/internal/writer"
)

// runBoard is the per-board orchestrator: it owns the health tracker, hands
// every poll result to the sinks and keeps the status block current.
// sw may be nil when the board has no status block.
func runBoard(
	ctx context.Context,
	board string,
	results <-chan poller.PollResult,
	out writer.Writer,
	sw writer.StatusWriter,
	store *report.Store,
	logger log.Logger,
) {
	tracker := status.NewTracker()

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	writeStatus := func() {
		if sw == nil {
			return
		}
		if err := sw.WriteStatus(tracker.Snapshot()); err != nil {
			logger.Errorf("status write failed: %v", err)
		}
	}

	// Full block write on start (identity re-assert).
	writeStatus()

	for {
		select {
		case <-ctx.Done():
			return

		case res := <-results:
			changed := tracker.Observe(res.Observation())

			u := writer.Update{Result: res, Status: tracker.Snapshot()}
			if err := out.Write(ctx, u); err != nil {
				logger.Errorf("%v", err)
			}

			if changed {
				logger.Debugf("health %s, code %d",
					status.HealthName(u.Status.Health), u.Status.LastErrorCode)
				writeStatus()
			}

		case <-secTicker.C:
			// seconds_in_error increments on the 1 Hz ticker only.
			if tracker.Tick() {
				store.SetStatus(board, tracker.Snapshot())
				writeStatus()
			}
		}
	}
}
