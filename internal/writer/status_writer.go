// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/amc-monitor/internal/status"
)

// StatusWriter is the delivery-only contract for board status.
// It receives a snapshot and writes it verbatim.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// liveSlots is the number of leading slots that track the snapshot.
const liveSlots = status.SlotCycleSeq + 1

// DeviceStatusWriter writes one board's status block over Modbus.
//
// The first write, and the first write after any failure, re-asserts the full
// block including the device name. Other writes only touch changed slots,
// grouping adjacent changes into one request so the two link-mask words move
// together.
type DeviceStatusWriter struct {
	plan StatusPlan
	cli  RegisterClient

	needFull bool
	last     []uint16
	nameRegs []uint16
}

// NewDeviceStatusWriter builds a status writer if a status block is planned.
// If plan is nil, status is disabled.
func NewDeviceStatusWriter(plan *StatusPlan, clients map[string]RegisterClient) (*DeviceStatusWriter, bool) {
	if plan == nil {
		return nil, false
	}

	return &DeviceStatusWriter{
		plan:     *plan,
		cli:      clients[plan.Endpoint],
		needFull: true,
		last:     status.Encode(status.Snapshot{Health: status.HealthUnknown})[:liveSlots],
		nameRegs: encodeDeviceNameRegs(plan.DeviceName),
	}, true
}

// WriteStatus delivers a board status snapshot into status memory.
func (sw *DeviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil {
		return errors.New("status writer: disabled")
	}
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}

	base := sw.baseAddr()
	regs := sw.fullBlockRegs(s)

	if sw.needFull {
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base, regs); err != nil {
			sw.needFull = true
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		copy(sw.last, regs[:liveSlots])
		return nil
	}

	var errs []string

	for _, run := range changedRuns(sw.last, regs[:liveSlots]) {
		lo, hi := run[0], run[1]
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base+uint16(lo), regs[lo:hi]); err != nil {
			errs = append(errs, fmt.Sprintf("slots %d-%d write failed: %v", lo, hi-1, err))
			continue
		}
		copy(sw.last[lo:hi], regs[lo:hi])
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt: re-assert on next write.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *DeviceStatusWriter) baseAddr() uint16 {
	// Each board owns a fixed SlotsPerDevice block.
	return sw.plan.Slot * status.SlotsPerDevice
}

func (sw *DeviceStatusWriter) fullBlockRegs(s status.Snapshot) []uint16 {
	regs := status.Encode(s)
	copy(regs[status.SlotDeviceNameStart:status.SlotDeviceNameEnd+1], sw.nameRegs)
	return regs
}

// changedRuns returns [lo, hi) ranges of slots that differ.
func changedRuns(prev, next []uint16) [][2]int {
	var runs [][2]int
	start := -1
	for i := range next {
		diff := i >= len(prev) || prev[i] != next[i]
		switch {
		case diff && start < 0:
			start = i
		case !diff && start >= 0:
			runs = append(runs, [2]int{start, i})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, [2]int{start, len(next)})
	}
	return runs
}

// encodeDeviceNameRegs packs up to 16 ASCII characters into 8 uint16 registers.
// Each register stores two ASCII bytes in big-endian order.
func encodeDeviceNameRegs(name string) []uint16 {
	out := make([]uint16, status.SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > status.DeviceNameMaxChars {
		b = b[:status.DeviceNameMaxChars]
	}

	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < len(b); i += 2 {
		hi := b[i]
		var lo byte
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
