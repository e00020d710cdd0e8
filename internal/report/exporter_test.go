// internal/report/exporter_test.go
package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/amc-monitor/internal/errcode"
)

// gatherValues returns metric values keyed by family name then by joined label values.
func gatherValues(t *testing.T, e *Exporter) map[string]map[string]float64 {
	t.Helper()

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(e))
	families, err := reg.Gather()
	require.NoError(t, err)

	out := map[string]map[string]float64{}
	for _, mf := range families {
		vals := map[string]float64{}
		for _, m := range mf.GetMetric() {
			key := ""
			for _, lp := range m.GetLabel() {
				key += lp.GetName() + "=" + lp.GetValue() + ","
			}
			switch {
			case m.GetGauge() != nil:
				vals[key] = m.GetGauge().GetValue()
			case m.GetCounter() != nil:
				vals[key] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				vals[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
		out[mf.GetName()] = vals
	}
	return out
}

func TestExporter_BoardAndPointMetrics(t *testing.T) {
	st := NewStore("amc02", "amc03")
	e := NewExporter(st)

	u := polledUpdate(t, newBoard(t, "amc02", 1, "getmonTTCmain"))
	require.NoError(t, st.Write(context.Background(), u))
	require.NoError(t, e.Write(context.Background(), u))

	vals := gatherValues(t, e)

	assert.Equal(t, 0.0, vals["amcmon_board_up"]["board=amc02,"], "a failed table means not up")
	assert.Equal(t, 0.0, vals["amcmon_board_up"]["board=amc03,"])
	assert.Equal(t, 1.0, vals["amcmon_board_health_code"]["board=amc02,"])
	assert.Equal(t, float64(pollTime.Unix()), vals["amcmon_board_last_poll_timestamp_seconds"]["board=amc02,"])
	assert.NotContains(t, vals["amcmon_board_last_poll_timestamp_seconds"], "board=amc03,")

	assert.Equal(t, 1.0, vals["amcmon_link_active"]["board=amc02,link=1,"])
	assert.Equal(t, 0.0, vals["amcmon_link_active"]["board=amc02,link=2,"])

	tts := "board=amc02,kind=tts-state,point=TTS_STATE,table=DAQ_MAIN,"
	assert.Equal(t, 8.0, vals["amcmon_point_raw"][tts])
	assert.Equal(t, 3.0, vals["amcmon_point_category"][tts])

	// TTC was never read: not exported
	assert.NotContains(t, vals["amcmon_point_raw"], "board=amc02,kind=lock-flag,point=MMCM_LOCKED,table=DAQ_TTC_MAIN,")

	assert.Equal(t, 1.0, vals["amcmon_polls_total"]["board=amc02,"])
	assert.Equal(t, 1.0, vals["amcmon_table_failures_total"]["board=amc02,code=rpc_method,table=DAQ_TTC_MAIN,"])
}

func TestExporter_ObserveRPC(t *testing.T) {
	e := NewExporter(NewStore())

	e.ObserveRPC("amc02", "daq_monitor.getmonDAQmain", 20*time.Millisecond, nil)
	e.ObserveRPC("amc02", "daq_monitor.getmonDAQmain", 30*time.Millisecond, errors.New("reset by peer"))
	e.ObserveRPC("amc02", "amc.checkPLLLock", time.Millisecond, errcode.New(errcode.RPCMethod, "amc.checkPLLLock", "no lock"))

	vals := gatherValues(t, e)
	h := vals["amcmon_rpc_duration_seconds"]
	assert.Len(t, h, 3)
	assert.Equal(t, 1.0, h["board=amc02,code=ok,method=daq_monitor.getmonDAQmain,"])
	assert.Equal(t, 1.0, h["board=amc02,code=error,method=daq_monitor.getmonDAQmain,"])
	assert.Equal(t, 1.0, h["board=amc02,code=rpc_method,method=amc.checkPLLLock,"])
}
