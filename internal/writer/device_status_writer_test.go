// internal/writer/device_status_writer_test.go
package writer

import (
	"errors"
	"testing"

	"github.com/tamzrod/amc-monitor/internal/status"
)

type regWrite struct {
	unitID uint8
	addr   uint16
	regs   []uint16
}

type fakeRegisterClient struct {
	writes []regWrite
	fail   bool
}

func (f *fakeRegisterClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if f.fail {
		return errors.New("connection reset")
	}
	cp := append([]uint16(nil), regs...)
	f.writes = append(f.writes, regWrite{unitID: unitID, addr: addr, regs: cp})
	return nil
}

func (f *fakeRegisterClient) last() regWrite { return f.writes[len(f.writes)-1] }

func newStatusWriter(t *testing.T, cli *fakeRegisterClient, slot uint16) *DeviceStatusWriter {
	t.Helper()
	plan := &StatusPlan{Endpoint: "status-endpoint", UnitID: 7, Slot: slot, DeviceName: "AMC-02"}
	sw, enabled := NewDeviceStatusWriter(plan, map[string]RegisterClient{"status-endpoint": cli})
	if !enabled {
		t.Fatalf("status writer should be enabled")
	}
	return sw
}

func TestStatusWriter_Disabled(t *testing.T) {
	if _, enabled := NewDeviceStatusWriter(nil, nil); enabled {
		t.Fatalf("nil plan must disable the status writer")
	}
}

func TestStatusWriter_MissingClient(t *testing.T) {
	plan := &StatusPlan{Endpoint: "elsewhere"}
	sw, _ := NewDeviceStatusWriter(plan, map[string]RegisterClient{})
	if err := sw.WriteStatus(status.Snapshot{}); err == nil {
		t.Fatalf("expected error for missing endpoint client")
	}
}

func TestDeviceNameWrittenOnFullAssertOnly(t *testing.T) {
	cli := &fakeRegisterClient{}
	sw := newStatusWriter(t, cli, 2)

	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK, LinkMask: 0xF}); err != nil {
		t.Fatalf("initial full assert failed: %v", err)
	}

	w := cli.last()
	if len(w.regs) != status.SlotsPerDevice {
		t.Fatalf("expected full block write (%d regs), got %d", status.SlotsPerDevice, len(w.regs))
	}
	if w.addr != 2*status.SlotsPerDevice || w.unitID != 7 {
		t.Fatalf("unexpected block address: unit=%d addr=%d", w.unitID, w.addr)
	}

	expected := encodeDeviceNameRegs("AMC-02")
	for i := 0; i < status.SlotDeviceNameSlots; i++ {
		slot := status.SlotDeviceNameStart + i
		if w.regs[slot] != expected[i] {
			t.Fatalf("device name slot %d mismatch: got=%d want=%d", slot, w.regs[slot], expected[i])
		}
	}
	if w.regs[status.SlotLinkMaskLow] != 0xF {
		t.Fatalf("link mask not in full block: %v", w.regs)
	}

	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthError, LastErrorCode: 20, LinkMask: 0xF}); err != nil {
		t.Fatalf("incremental write failed: %v", err)
	}
	if n := len(cli.last().regs); n == status.SlotsPerDevice {
		t.Fatalf("device name should not be rewritten on incremental update")
	}
}

func TestStatusWriter_UnchangedWritesNothing(t *testing.T) {
	cli := &fakeRegisterClient{}
	sw := newStatusWriter(t, cli, 0)

	s := status.Snapshot{Health: status.HealthOK, CycleSeq: 3}
	if err := sw.WriteStatus(s); err != nil {
		t.Fatalf("full assert failed: %v", err)
	}
	if err := sw.WriteStatus(s); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if len(cli.writes) != 1 {
		t.Fatalf("expected no incremental writes, got %d total", len(cli.writes))
	}
}

func TestSecondsInErrorResetOnRecovery(t *testing.T) {
	cli := &fakeRegisterClient{}
	sw := newStatusWriter(t, cli, 0)

	errSnap := status.Snapshot{Health: status.HealthError, LastErrorCode: 20, SecondsInError: 3}
	if err := sw.WriteStatus(errSnap); err != nil {
		t.Fatalf("error snapshot write failed: %v", err)
	}

	// only seconds changes
	errSnap.SecondsInError = 0
	if err := sw.WriteStatus(errSnap); err != nil {
		t.Fatalf("recovery snapshot write failed: %v", err)
	}

	w := cli.last()
	if w.addr != status.SlotSecondsInError {
		t.Fatalf("unexpected write addr: got=%d want=%d", w.addr, status.SlotSecondsInError)
	}
	if len(w.regs) != 1 || w.regs[0] != 0 {
		t.Fatalf("seconds_in_error not reset: %v", w.regs)
	}
}

func TestStatusWriter_LinkMaskWordsMoveTogether(t *testing.T) {
	cli := &fakeRegisterClient{}
	sw := newStatusWriter(t, cli, 1)

	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK, LinkMask: 0x0000FFFF}); err != nil {
		t.Fatalf("full assert failed: %v", err)
	}
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK, LinkMask: 0x00010000}); err != nil {
		t.Fatalf("incremental write failed: %v", err)
	}

	w := cli.last()
	if w.addr != status.SlotsPerDevice+status.SlotLinkMaskHigh {
		t.Fatalf("unexpected addr %d", w.addr)
	}
	if len(w.regs) != 2 || w.regs[0] != 0x0001 || w.regs[1] != 0x0000 {
		t.Fatalf("unexpected mask write: %v", w.regs)
	}
}

func TestStatusWriter_FailureForcesFullAssert(t *testing.T) {
	cli := &fakeRegisterClient{}
	sw := newStatusWriter(t, cli, 0)

	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthOK}); err != nil {
		t.Fatalf("full assert failed: %v", err)
	}

	cli.fail = true
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthStale, FailedTables: 1}); err == nil {
		t.Fatalf("expected write failure")
	}

	cli.fail = false
	if err := sw.WriteStatus(status.Snapshot{Health: status.HealthStale, FailedTables: 1}); err != nil {
		t.Fatalf("write after recovery failed: %v", err)
	}
	if n := len(cli.last().regs); n != status.SlotsPerDevice {
		t.Fatalf("expected full re-assert after failure, got %d regs", n)
	}
}

func TestEncodeDeviceNameRegs(t *testing.T) {
	regs := encodeDeviceNameRegs("ABC\x01")
	if regs[0] != uint16('A')<<8|uint16('B') {
		t.Fatalf("unexpected first reg 0x%04x", regs[0])
	}
	if regs[1] != uint16('C')<<8|uint16('?') {
		t.Fatalf("non-printable byte must be replaced, got 0x%04x", regs[1])
	}
	for i := 2; i < len(regs); i++ {
		if regs[i] != 0 {
			t.Fatalf("reg %d must be zero, got 0x%04x", i, regs[i])
		}
	}
}
