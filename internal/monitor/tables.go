// internal/monitor/tables.go
package monitor

import (
	"fmt"

	"github.com/tamzrod/amc-monitor/internal/classify"
	"github.com/tamzrod/amc-monitor/internal/rpc"
)

// DefaultModule is the remote module serving the monitoring fetches.
const DefaultModule = "daq_monitor"

// Table names.
const (
	TableDAQ        = "DAQ_MAIN"
	TableDAQOH      = "DAQ_OH_MAIN"
	TableTTC        = "DAQ_TTC_MAIN"
	TableTrigger    = "DAQ_TRIGGER_MAIN"
	TableTriggerOH  = "DAQ_TRIGGER_OH_MAIN"
	TableOptoHybrid = "OH_MAIN"
)

// Field is one point template: a name (or per-OH suffix) and its kind.
type Field struct {
	Name string
	Kind classify.Kind
}

// DAQFields are the board-level DAQ points.
var DAQFields = []Field{
	{"DAQ_ENABLE", classify.KindReadyFlag},
	{"DAQ_LINK_READY", classify.KindReadyFlag},
	{"DAQ_LINK_AFULL", classify.KindWarnFlag},
	{"DAQ_OFIFO_HAD_OFLOW", classify.KindFaultFlag},
	{"L1A_FIFO_HAD_OFLOW", classify.KindFaultFlag},
	{"L1A_FIFO_DATA_COUNT", classify.KindCounter},
	{"DAQ_FIFO_DATA_COUNT", classify.KindCounter},
	{"EVENT_SENT", classify.KindCounter},
	{"TTS_STATE", classify.KindTTSState},
	{"INPUT_ENABLE_MASK", classify.KindLaneMask},
	{"INPUT_AUTOKILL_MASK", classify.KindLaneMask},
}

// DAQOHFields are the per-OH DAQ status flags, suffixed to "OH<i>".
var DAQOHFields = []Field{
	{".STATUS.EVT_SIZE_ERR", classify.KindFaultFlag},
	{".STATUS.EVENT_FIFO_HAD_OFLOW", classify.KindFaultFlag},
	{".STATUS.INPUT_FIFO_HAD_OFLOW", classify.KindFaultFlag},
	{".STATUS.INPUT_FIFO_HAD_UFLOW", classify.KindFaultFlag},
	{".STATUS.VFAT_TOO_MANY", classify.KindFaultFlag},
	{".STATUS.VFAT_NO_MARKER", classify.KindFaultFlag},
}

// TTCFields are the TTC points.
var TTCFields = []Field{
	{"MMCM_LOCKED", classify.KindLockFlag},
	{"TTC_SINGLE_ERROR_CNT", classify.KindErrorCounter},
	{"BC0_LOCKED", classify.KindLockFlag},
	{"L1A_ID", classify.KindCounter},
	{"L1A_RATE", classify.KindCounter},
}

// TriggerFields are the per-OH trigger rates.
var TriggerFields = []Field{
	{".TRIGGER_RATE", classify.KindCounter},
}

// TriggerOHFields are the per-OH trigger link error counters.
var TriggerOHFields = []Field{
	{".LINK0_MISSED_COMMA_CNT", classify.KindLinkErrorCounter},
	{".LINK1_MISSED_COMMA_CNT", classify.KindLinkErrorCounter},
	{".LINK0_OVERFLOW_CNT", classify.KindLinkErrorCounter},
	{".LINK1_OVERFLOW_CNT", classify.KindLinkErrorCounter},
	{".LINK0_UNDERFLOW_CNT", classify.KindLinkErrorCounter},
	{".LINK1_UNDERFLOW_CNT", classify.KindLinkErrorCounter},
	{".LINK0_SBIT_OVERFLOW_CNT", classify.KindLinkErrorCounter},
	{".LINK1_SBIT_OVERFLOW_CNT", classify.KindLinkErrorCounter},
}

// OptoHybridFields are the per-OH firmware and link health points.
var OptoHybridFields = []Field{
	{".FW_VERSION", classify.KindFirmwareID},
	{".EVENT_COUNTER", classify.KindCounter},
	{".EVENT_RATE", classify.KindCounter},
	{".GTX.TRK_ERR", classify.KindLinkErrorCounter},
	{".GTX.TRG_ERR", classify.KindLinkErrorCounter},
	{".GBT.TRK_ERR", classify.KindLinkErrorCounter},
	{".CORR_VFAT_BLK_CNT", classify.KindLinkErrorCounter},
	{".COUNTERS.SEU", classify.KindLinkErrorCounter},
	{".STATUS.SEU", classify.KindLinkErrorCounter},
}

// OpticalRows is the row order of the optical link matrix: OH health, trigger links, DAQ status.
func OpticalRows() []Field {
	rows := make([]Field, 0, len(OptoHybridFields)+len(TriggerOHFields)+len(DAQOHFields))
	rows = append(rows, OptoHybridFields...)
	rows = append(rows, TriggerOHFields...)
	rows = append(rows, DAQOHFields...)
	return rows
}

// OHPoint names the point of OptoHybrid oh for a per-OH suffix.
func OHPoint(oh uint, suffix string) string {
	return fmt.Sprintf("OH%d%s", oh, suffix)
}

// SetupDAQMonitoring declares the six monitoring tables of a board with noh OptoHybrids.
// Per-OH tables pass NOH to the remote fetch.
func SetupDAQMonitoring(r *Registry, noh uint, module string) error {
	if module == "" {
		module = DefaultModule
	}

	specs := []struct {
		table  string
		method string
		fields []Field
		perOH  bool
	}{
		{TableDAQ, "getmonDAQmain", DAQFields, false},
		{TableDAQOH, "getmonDAQOHmain", DAQOHFields, true},
		{TableTTC, "getmonTTCmain", TTCFields, false},
		{TableTrigger, "getmonTRIGGERmain", TriggerFields, true},
		{TableTriggerOH, "getmonTRIGGEROHmain", TriggerOHFields, true},
		{TableOptoHybrid, "getmonOHmain", OptoHybridFields, true},
	}

	for _, t := range specs {
		var args []rpc.Arg
		if t.perOH {
			args = append(args, rpc.Arg{Name: "NOH", Word: uint32(noh)})
		}
		if err := r.AddTable(t.table, module+"."+t.method, args...); err != nil {
			return err
		}

		if !t.perOH {
			for _, f := range t.fields {
				if err := r.RegisterPoint(f.Name, t.table, f.Kind); err != nil {
					return err
				}
			}
			continue
		}
		for oh := uint(0); oh < noh; oh++ {
			for _, f := range t.fields {
				if err := r.RegisterPoint(OHPoint(oh, f.Name), t.table, f.Kind); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
