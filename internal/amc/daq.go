// internal/amc/daq.go
package amc

import (
	"context"
	"fmt"

	"github.com/tamzrod/amc-monitor/internal/errcode"
	"github.com/tamzrod/amc-monitor/internal/rpc"
)

// DAQModuleConfig are the arguments of amc.configureDAQModule.
type DAQModuleConfig struct {
	EnableZS      bool
	DoPhaseShift  bool
	RunType       uint32
	Marker        uint32
	Relock        bool
	BC0LockPSMode bool
}

// ConfigureDAQModule configures the DAQ module remotely.
func (d *Device) ConfigureDAQModule(ctx context.Context, c DAQModuleConfig) error {
	req := rpc.NewRequest("amc.configureDAQModule").
		SetBool("enableZS", c.EnableZS).
		SetBool("doPhaseShift", c.DoPhaseShift).
		SetWord("runType", c.RunType).
		SetWord("marker", c.Marker).
		SetBool("relock", c.Relock).
		SetBool("bc0LockPSMode", c.BC0LockPSMode)
	_, err := d.call(ctx, req)
	return err
}

// EnableDAQLink enables the DAQ link for the inputs in enableMask.
func (d *Device) EnableDAQLink(ctx context.Context, enableMask uint32) error {
	_, err := d.call(ctx, rpc.NewRequest("amc.enableDAQLink").SetWord("enableMask", enableMask))
	return err
}

// DisableDAQLink disables the DAQ link.
func (d *Device) DisableDAQLink(ctx context.Context) error {
	_, err := d.call(ctx, rpc.NewRequest("amc.disableDAQLink"))
	return err
}

// ResetDAQLink resets the DAQ link with the given DAV timeout and TTS override.
func (d *Device) ResetDAQLink(ctx context.Context, davTO, ttsOverride uint32) error {
	req := rpc.NewRequest("amc.resetDAQLink").
		SetWord("davTO", davTO).
		SetWord("ttsOverride", ttsOverride)
	_, err := d.call(ctx, req)
	return err
}

// SetZeroSuppression toggles DAQ zero suppression.
func (d *Device) SetZeroSuppression(en bool) error {
	return d.writeBool("DAQ.CONTROL.ZERO_SUPPRESSION_EN", en)
}

// DAQLinkControl reads the DAQ control word.
func (d *Device) DAQLinkControl() (uint32, error) { return d.Read("DAQ.CONTROL") }

// DAQLinkStatus reads the DAQ status word.
func (d *Device) DAQLinkStatus() (uint32, error) { return d.Read("DAQ.STATUS") }

func (d *Device) DAQLinkReady() (bool, error)   { return d.readBool("DAQ.STATUS.DAQ_LINK_RDY") }
func (d *Device) DAQClockLocked() (bool, error) { return d.readBool("DAQ.STATUS.DAQ_CLK_LOCKED") }
func (d *Device) DAQTTCReady() (bool, error)    { return d.readBool("DAQ.STATUS.TTC_RDY") }
func (d *Device) DAQAlmostFull() (bool, error)  { return d.readBool("DAQ.STATUS.DAQ_AFULL") }

// DAQTTSState reads the trigger throttling state (see classify.KindTTSState).
func (d *Device) DAQTTSState() (uint8, error) {
	v, err := d.Read("DAQ.STATUS.TTS_STATE")
	return uint8(v), err
}

func (d *Device) L1AFIFOIsEmpty() (bool, error) { return d.readBool("DAQ.STATUS.L1A_FIFO_IS_EMPTY") }
func (d *Device) L1AFIFOIsAlmostFull() (bool, error) {
	return d.readBool("DAQ.STATUS.L1A_FIFO_IS_NEAR_FULL")
}
func (d *Device) L1AFIFOIsFull() (bool, error) { return d.readBool("DAQ.STATUS.L1A_FIFO_IS_FULL") }
func (d *Device) L1AFIFOIsUnderflow() (bool, error) {
	return d.readBool("DAQ.STATUS.L1A_FIFO_IS_UNDERFLOW")
}

func (d *Device) DAQLinkEventsSent() (uint32, error) { return d.Read("DAQ.EXT_STATUS.EVT_SENT") }
func (d *Device) DAQLinkL1AID() (uint32, error)      { return d.Read("DAQ.EXT_STATUS.L1AID") }
func (d *Device) DAQLinkDisperErrors() (uint32, error) {
	return d.Read("DAQ.EXT_STATUS.DISPER_ERR")
}
func (d *Device) DAQLinkNonidentifiableErrors() (uint32, error) {
	return d.Read("DAQ.EXT_STATUS.NOTINTABLE_ERR")
}

// DAQLinkInputMask reads the enabled input mask.
func (d *Device) DAQLinkInputMask() (uint32, error) {
	return d.Read("DAQ.CONTROL.INPUT_ENABLE_MASK")
}

// DAQLinkDAVTimeout reads the configured DAV timeout.
func (d *Device) DAQLinkDAVTimeout() (uint32, error) { return d.Read("DAQ.CONTROL.DAV_TIMEOUT") }

// DAQLinkDAVTimer reads the maximum (max) or last DAV timer value.
func (d *Device) DAQLinkDAVTimer(max bool) (uint32, error) {
	if max {
		return d.Read("DAQ.EXT_STATUS.MAX_DAV_TIMER")
	}
	return d.Read("DAQ.EXT_STATUS.LAST_DAV_TIMER")
}

func (d *Device) DAQLinkInputTimeout() (uint32, error) {
	return d.Read("DAQ.EXT_CONTROL.INPUT_TIMEOUT")
}

func (d *Device) DAQLinkRunType() (uint32, error) { return d.Read("DAQ.EXT_CONTROL.RUN_TYPE") }

func (d *Device) SetDAQLinkRunType(v uint32) error {
	return d.Write("DAQ.EXT_CONTROL.RUN_TYPE", v)
}

func (d *Device) DAQLinkRunParameters() (uint32, error) {
	return d.Read("DAQ.EXT_CONTROL.RUN_PARAMS")
}

func (d *Device) SetDAQLinkRunParameters(v uint32) error {
	return d.Write("DAQ.EXT_CONTROL.RUN_PARAMS", v)
}

// NumRunParameters is the number of individually addressable run parameters (1-based).
const NumRunParameters = 3

// DAQLinkRunParameter reads run parameter 1..NumRunParameters.
func (d *Device) DAQLinkRunParameter(param uint8) (uint32, error) {
	rel, err := runParamPath("read run parameter", param)
	if err != nil {
		return 0, err
	}
	return d.Read(rel)
}

// SetDAQLinkRunParameter writes run parameter 1..NumRunParameters.
// An out-of-range index is rejected before any bus access.
func (d *Device) SetDAQLinkRunParameter(param uint8, value uint8) error {
	rel, err := runParamPath("set run parameter", param)
	if err != nil {
		d.log.Errorf("%v", err)
		return err
	}
	return d.Write(rel, uint32(value))
}

func runParamPath(op string, param uint8) (string, error) {
	if param < 1 || param > NumRunParameters {
		return "", errcode.New(errcode.InvalidParams, op,
			fmt.Sprintf("parameter %d outside expectation (1-%d)", param, NumRunParameters))
	}
	return fmt.Sprintf("DAQ.EXT_CONTROL.RUN_PARAM%d", param), nil
}
