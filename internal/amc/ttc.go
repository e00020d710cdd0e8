// internal/amc/ttc.go
package amc

import (
	"context"

	"github.com/tamzrod/amc-monitor/internal/rpc"
)

// TTCCommand selects a TTC command counter.
type TTCCommand uint8

const (
	TTCL1A TTCCommand = iota
	TTCBC0
	TTCEC0
	TTCResync
	TTCOC0
	TTCHardReset
	TTCCalPulse
	TTCStart
	TTCStop
	TTCTestSync
)

func (c TTCCommand) counter() string {
	switch c {
	case TTCBC0:
		return "BC0"
	case TTCEC0:
		return "EC0"
	case TTCResync:
		return "RESYNC"
	case TTCOC0:
		return "OC0"
	case TTCHardReset:
		return "HARD_RESET"
	case TTCCalPulse:
		return "CALPULSE"
	case TTCStart:
		return "START"
	case TTCStop:
		return "STOP"
	case TTCTestSync:
		return "TEST_SYNC"
	default:
		return "L1A"
	}
}

func (d *Device) TTCModuleReset() error  { return d.Write("TTC.CTRL.MODULE_RESET", 0x1) }
func (d *Device) TTCMMCMReset() error    { return d.Write("TTC.CTRL.MMCM_RESET", 0x1) }
func (d *Device) TTCCounterReset() error { return d.Write("TTC.CTRL.CNT_RESET", 0x1) }

// TTCMMCMPhaseShift runs the remote MMCM phase alignment.
func (d *Device) TTCMMCMPhaseShift(ctx context.Context, relock, modeBC0, scan bool) error {
	req := rpc.NewRequest("amc.ttcMMCMPhaseShift").
		SetBool("relock", relock).
		SetBool("modeBC0", modeBC0).
		SetBool("scan", scan)
	_, err := d.call(ctx, req)
	return err
}

// CheckPLLLock asks the board how many of readAttempts reads saw the PLL locked.
func (d *Device) CheckPLLLock(ctx context.Context, readAttempts uint32) (uint32, error) {
	resp, err := d.call(ctx, rpc.NewRequest("amc.checkPLLLock").SetWord("readAttempts", readAttempts))
	if err != nil {
		return 0, err
	}
	return resp.Word("lockCnt")
}

// MMCMPhaseMean returns the MMCM phase mean.
// One attempt reads the firmware register; more are averaged remotely.
func (d *Device) MMCMPhaseMean(ctx context.Context, readAttempts uint32) (float64, error) {
	return d.phaseMean(ctx, readAttempts, "TTC.STATUS.CLK.TTC_PM_PHASE_MEAN", "amc.getMMCMPhaseMean")
}

// MMCMPhaseMedian returns the mean: the firmware offers no median.
func (d *Device) MMCMPhaseMedian(ctx context.Context, readAttempts uint32) (float64, error) {
	d.log.Warn("MMCM phase median is not implemented, returning the mean")
	return d.MMCMPhaseMean(ctx, readAttempts)
}

// GTHPhaseMean returns the GTH phase mean, with the same read policy as MMCMPhaseMean.
func (d *Device) GTHPhaseMean(ctx context.Context, readAttempts uint32) (float64, error) {
	return d.phaseMean(ctx, readAttempts, "TTC.STATUS.CLK.GTH_PM_PHASE_MEAN", "amc.getGTHPhaseMean")
}

// GTHPhaseMedian returns the mean: the firmware offers no median.
func (d *Device) GTHPhaseMedian(ctx context.Context, readAttempts uint32) (float64, error) {
	d.log.Warn("GTH phase median is not implemented, returning the mean")
	return d.GTHPhaseMean(ctx, readAttempts)
}

func (d *Device) phaseMean(ctx context.Context, readAttempts uint32, rel, method string) (float64, error) {
	if readAttempts == 1 {
		v, err := d.Read(rel)
		return float64(v), err
	}
	resp, err := d.call(ctx, rpc.NewRequest(method).SetWord("reads", readAttempts))
	if err != nil {
		return 0, err
	}
	v, err := resp.Word("phase")
	return float64(v), err
}

func (d *Device) L1AEnable() (bool, error)   { return d.readBool("TTC.CTRL.L1A_ENABLE") }
func (d *Device) SetL1AEnable(en bool) error { return d.writeBool("TTC.CTRL.L1A_ENABLE", en) }

// TTCStatus reads the TTC status word.
func (d *Device) TTCStatus() (uint32, error) { return d.Read("TTC.STATUS") }

// TTCErrorCount reads the single or double bit error count.
func (d *Device) TTCErrorCount(single bool) (uint32, error) {
	if single {
		return d.Read("TTC.STATUS.TTC_SINGLE_ERROR_CNT")
	}
	return d.Read("TTC.STATUS.TTC_DOUBLE_ERROR_CNT")
}

// TTCCounter reads the counter of one TTC command. Unknown commands read the L1A counter.
func (d *Device) TTCCounter(cmd TTCCommand) (uint32, error) {
	return d.Read("TTC.CMD_COUNTERS." + cmd.counter())
}

func (d *Device) L1AID() (uint32, error)   { return d.Read("TTC.L1A_ID") }
func (d *Device) L1ARate() (uint32, error) { return d.Read("TTC.L1A_RATE") }

// ---- trigger ----

func (d *Device) TriggerReset() error        { return d.Write("TRIGGER.CTRL.MODULE_RESET", 0x1) }
func (d *Device) TriggerCounterReset() error { return d.Write("TRIGGER.CTRL.CNT_RESET", 0x1) }

// OptoHybridKillMask reads the mask of OptoHybrids excluded from the trigger.
func (d *Device) OptoHybridKillMask() (uint32, error) {
	return d.Read("TRIGGER.CTRL.OH_KILL_MASK")
}

// SetOptoHybridKillMask writes the trigger kill mask.
func (d *Device) SetOptoHybridKillMask(mask uint32) error {
	return d.Write("TRIGGER.CTRL.OH_KILL_MASK", mask)
}

func (d *Device) ORTriggerRate() (uint32, error) { return d.Read("TRIGGER.STATUS.OR_TRIGGER_RATE") }

// ORTriggerCount reads the OR trigger count. Current firmware exposes it as the single error counter.
func (d *Device) ORTriggerCount() (uint32, error) {
	return d.Read("TRIGGER.STATUS.TRIGGER_SINGLE_ERROR_CNT")
}

// SCAHardResetEnable lets a TTC hard reset propagate to the SCA.
func (d *Device) SCAHardResetEnable(en bool) error {
	return d.writeBool("SLOW_CONTROL.SCA.CTRL.TTC_HARD_RESET_EN", en)
}

// ---- aggregate resets ----

// CounterReset clears the TTC and trigger counters and the IPBus counters of every usable link.
func (d *Device) CounterReset() error {
	if err := d.TTCCounterReset(); err != nil {
		return err
	}
	if err := d.TriggerCounterReset(); err != nil {
		return err
	}
	for _, link := range d.links.Active() {
		if err := d.ResetIPBusCounters(link, IPBusAll); err != nil {
			return err
		}
	}
	return nil
}

// GeneralReset runs CounterReset then resets every usable link.
func (d *Device) GeneralReset() error {
	if err := d.CounterReset(); err != nil {
		return err
	}
	for _, link := range d.links.Active() {
		if err := d.LinkReset(link, ResetLinkCounters|ResetTriggerCounters); err != nil {
			return err
		}
	}
	return nil
}
