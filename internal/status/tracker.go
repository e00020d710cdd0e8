// internal/status/tracker.go
package status

import "github.com/tamzrod/amc-monitor/internal/errcode"

// Observation is what one poll tells the tracker about a board.
type Observation struct {
	// Err is a board-level failure (connectivity, transport) that
	// prevented or invalidated the cycle.
	Err error

	// DeviceDown is set when a configured register bus device is not
	// connected (no active links, or the bus was lost).
	DeviceDown bool

	TotalTables  int
	FailedTables int
	// TableErr is the first table failure, if any.
	TableErr error

	LinkMask      uint32
	UnknownPoints int
	Seq           uint64
}

// Tracker owns the health state of one board.
// Runner-owned: not safe for concurrent use.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in HealthUnknown.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Observe folds one poll result into the state and reports whether anything changed.
//
// A board-level error or a cycle where every table failed is HealthError;
// some failed tables or a device that is down is HealthStale; otherwise
// HealthOK, which also clears the last error code and seconds in error.
func (t *Tracker) Observe(o Observation) bool {
	next := t.snap

	next.LinkMask = o.LinkMask
	next.FailedTables = clamp16(o.FailedTables)
	next.UnknownPoints = clamp16(o.UnknownPoints)
	next.CycleSeq = uint16(o.Seq)

	switch {
	case o.Err != nil:
		next.Health = HealthError
		next.LastErrorCode = errcode.Of(o.Err).Num()
	case o.TotalTables > 0 && o.FailedTables >= o.TotalTables:
		next.Health = HealthError
		next.LastErrorCode = errcode.Of(o.TableErr).Num()
	case o.FailedTables > 0:
		next.Health = HealthStale
		next.LastErrorCode = errcode.Of(o.TableErr).Num()
	case o.DeviceDown:
		next.Health = HealthStale
		next.LastErrorCode = errcode.Connectivity.Num()
	default:
		// Recovery / OK
		next.Health = HealthOK
		next.LastErrorCode = 0
		next.SecondsInError = 0
	}

	changed := next != t.snap
	t.snap = next
	return changed
}

// Tick advances seconds-in-error by one while not OK.
// Call at 1 Hz. Saturates at 65535.
func (t *Tracker) Tick() bool {
	if t.snap.Health == HealthOK {
		return false
	}
	if t.snap.SecondsInError == 0xFFFF {
		return false
	}
	t.snap.SecondsInError++
	return true
}

func clamp16(n int) uint16 {
	if n < 0 {
		return 0
	}
	if n > 0xFFFF {
		return 0xFFFF
	}
	return uint16(n)
}
