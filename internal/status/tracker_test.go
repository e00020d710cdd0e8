// internal/status/tracker_test.go
package status

import (
	"errors"
	"testing"

	"github.com/tamzrod/amc-monitor/internal/errcode"
)

func TestTracker_StartsUnknownAndTicks(t *testing.T) {
	tr := NewTracker()
	if tr.Snapshot().Health != HealthUnknown {
		t.Fatalf("expected unknown health at start")
	}
	if !tr.Tick() || tr.Snapshot().SecondsInError != 1 {
		t.Fatalf("expected seconds in error to advance while unknown")
	}
}

func TestTracker_OKClearsError(t *testing.T) {
	tr := NewTracker()

	tr.Observe(Observation{Err: errcode.New(errcode.Transport, "refresh", "timeout"), TotalTables: 6})
	tr.Tick()
	tr.Tick()

	s := tr.Snapshot()
	if s.Health != HealthError || s.LastErrorCode != errcode.Transport.Num() || s.SecondsInError != 2 {
		t.Fatalf("unexpected error snapshot: %+v", s)
	}

	if !tr.Observe(Observation{TotalTables: 6, LinkMask: 0xF, Seq: 7}) {
		t.Fatalf("recovery must report a change")
	}
	s = tr.Snapshot()
	if s.Health != HealthOK || s.LastErrorCode != 0 || s.SecondsInError != 0 {
		t.Fatalf("unexpected recovered snapshot: %+v", s)
	}
	if s.LinkMask != 0xF || s.CycleSeq != 7 {
		t.Fatalf("unexpected link mask / seq: %+v", s)
	}
	if tr.Tick() {
		t.Fatalf("tick must not change an OK board")
	}
}

func TestTracker_PartialFailureIsStale(t *testing.T) {
	tr := NewTracker()
	tr.Observe(Observation{
		TotalTables:  6,
		FailedTables: 2,
		TableErr:     errcode.New(errcode.MissingField, "OH_MAIN", "x"),
	})

	s := tr.Snapshot()
	if s.Health != HealthStale {
		t.Fatalf("expected stale, got %s", HealthName(s.Health))
	}
	if s.LastErrorCode != errcode.MissingField.Num() || s.FailedTables != 2 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}

func TestTracker_DeviceDownIsStale(t *testing.T) {
	tr := NewTracker()
	tr.Observe(Observation{TotalTables: 6, DeviceDown: true, Seq: 3})

	s := tr.Snapshot()
	if s.Health != HealthStale || s.LastErrorCode != errcode.Connectivity.Num() {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if s.LinkMask != 0 {
		t.Fatalf("expected empty link mask, got 0x%08x", s.LinkMask)
	}

	if !tr.Observe(Observation{TotalTables: 6, LinkMask: 0x3, Seq: 4}) {
		t.Fatalf("reconnect must report a change")
	}
	if s := tr.Snapshot(); s.Health != HealthOK || s.LastErrorCode != 0 {
		t.Fatalf("unexpected snapshot after reconnect: %+v", s)
	}
}

func TestTracker_DeviceDownKeepsTableError(t *testing.T) {
	tr := NewTracker()
	tr.Observe(Observation{
		TotalTables:  6,
		FailedTables: 1,
		TableErr:     errcode.New(errcode.RPCMethod, "OH_MAIN", "busy"),
		DeviceDown:   true,
	})
	if s := tr.Snapshot(); s.Health != HealthStale || s.LastErrorCode != errcode.RPCMethod.Num() {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}

func TestTracker_AllTablesFailedIsError(t *testing.T) {
	tr := NewTracker()
	tr.Observe(Observation{TotalTables: 3, FailedTables: 3, TableErr: errors.New("boom")})

	s := tr.Snapshot()
	if s.Health != HealthError || s.LastErrorCode != errcode.Error.Num() {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
}

func TestTracker_SameObservationIsNoChange(t *testing.T) {
	tr := NewTracker()
	o := Observation{TotalTables: 6, LinkMask: 3, Seq: 1}
	if !tr.Observe(o) {
		t.Fatalf("first observation must change state")
	}
	if tr.Observe(o) {
		t.Fatalf("identical observation must not change state")
	}
}

func TestTracker_SecondsSaturate(t *testing.T) {
	tr := NewTracker()
	tr.snap.SecondsInError = 0xFFFE
	if !tr.Tick() {
		t.Fatalf("expected last increment")
	}
	if tr.Tick() {
		t.Fatalf("expected saturation")
	}
}

func TestEncode_Layout(t *testing.T) {
	regs := Encode(Snapshot{
		Health:         HealthStale,
		LastErrorCode:  31,
		SecondsInError: 9,
		LinkMask:       0x0001000F,
		FailedTables:   1,
		UnknownPoints:  12,
		CycleSeq:       44,
	})

	if len(regs) != SlotsPerDevice {
		t.Fatalf("expected %d slots, got %d", SlotsPerDevice, len(regs))
	}
	want := map[int]uint16{
		SlotHealthCode:     HealthStale,
		SlotLastErrorCode:  31,
		SlotSecondsInError: 9,
		SlotLinkMaskHigh:   0x0001,
		SlotLinkMaskLow:    0x000F,
		SlotFailedTables:   1,
		SlotUnknownPoints:  12,
		SlotCycleSeq:       44,
	}
	for slot, v := range want {
		if regs[slot] != v {
			t.Fatalf("slot %d: expected %d, got %d", slot, v, regs[slot])
		}
	}
	for i := SlotReservedStart; i <= SlotDeviceNameEnd; i++ {
		if regs[i] != 0 {
			t.Fatalf("slot %d must be zero, got %d", i, regs[i])
		}
	}
}
