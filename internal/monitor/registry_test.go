// internal/monitor/registry_test.go
package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/amc-monitor/internal/classify"
	"github.com/tamzrod/amc-monitor/internal/errcode"
	"github.com/tamzrod/amc-monitor/internal/rpc"
)

// fakeCaller answers each method from a table of canned replies.
type fakeCaller struct {
	words map[string]map[string]uint32
	errs  map[string]error
	calls []*rpc.Request
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{words: map[string]map[string]uint32{}, errs: map[string]error{}}
}

func (f *fakeCaller) Call(ctx context.Context, req *rpc.Request) (rpc.Response, error) {
	f.calls = append(f.calls, req)
	if err := f.errs[req.Method]; err != nil {
		return rpc.Response{}, err
	}
	return rpc.NewResponse(req.Method, f.words[req.Method], nil), nil
}

func newRegistry(t *testing.T, c rpc.Caller) *Registry {
	t.Helper()
	r, err := NewRegistry("amc02", c)
	require.NoError(t, err)
	return r
}

func TestRegisterPoint_DuplicateAcrossTables(t *testing.T) {
	r := newRegistry(t, newFakeCaller())
	require.NoError(t, r.AddTable("A", "m.a"))
	require.NoError(t, r.AddTable("B", "m.b"))
	require.NoError(t, r.RegisterPoint("X", "A", classify.KindCounter))

	err := r.RegisterPoint("X", "B", classify.KindCounter)
	assert.True(t, errors.Is(err, errcode.DuplicateName))

	p, ok := r.Point("X")
	require.True(t, ok)
	assert.Equal(t, "A", p.Table)
}

func TestRegisterPoint_UnknownTable(t *testing.T) {
	r := newRegistry(t, newFakeCaller())
	err := r.RegisterPoint("X", "nope", classify.KindCounter)
	assert.True(t, errors.Is(err, errcode.InvalidParams))
}

func TestAddTable_Duplicate(t *testing.T) {
	r := newRegistry(t, newFakeCaller())
	require.NoError(t, r.AddTable("A", "m.a"))
	assert.True(t, errors.Is(r.AddTable("A", "m.other"), errcode.DuplicateName))
}

func TestNewPointsAreUnknown(t *testing.T) {
	r := newRegistry(t, newFakeCaller())
	require.NoError(t, r.AddTable("A", "m.a"))
	require.NoError(t, r.RegisterPoint("TTS_STATE", "A", classify.KindTTSState))

	p, _ := r.Point("TTS_STATE")
	assert.Equal(t, classify.Unknown, p.Raw)
	assert.Equal(t, classify.Label{Text: "X", Category: classify.CategoryUnknown}, p.Label())
	assert.Equal(t, 1, r.Snapshot().Unknown())
}

func TestFetchTable_CommitsAndStamps(t *testing.T) {
	c := newFakeCaller()
	c.words["m.a"] = map[string]uint32{"TTS_STATE": 8, "EVENT_SENT": 42, "EXTRA": 1}

	r := newRegistry(t, c)
	require.NoError(t, r.AddTable("A", "m.a", rpc.Arg{Name: "NOH", Word: 4}))
	require.NoError(t, r.RegisterPoint("TTS_STATE", "A", classify.KindTTSState))
	require.NoError(t, r.RegisterPoint("EVENT_SENT", "A", classify.KindCounter))

	batch, err := r.FetchTable(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, map[string]uint32{"TTS_STATE": 8, "EVENT_SENT": 42}, batch.Values)
	assert.Equal(t, uint64(1), batch.Stamp)

	noh, ok := c.calls[0].Word("NOH")
	assert.True(t, ok)
	assert.Equal(t, uint32(4), noh)

	p, _ := r.Point("TTS_STATE")
	assert.Equal(t, uint32(8), p.Raw)
	assert.Equal(t, uint64(1), p.Stamp)

	view, ok := r.Snapshot().Lookup("TTS_STATE")
	require.True(t, ok)
	assert.Equal(t, "amc02.TTS_STATE", view.ID)
	assert.Equal(t, "READY", view.Text)
	assert.Equal(t, "label label-success", view.Class)
}

func TestFetchTable_ErrorReplyLeavesPointsUnchanged(t *testing.T) {
	c := newFakeCaller()
	c.words["m.a"] = map[string]uint32{"DAQ_LINK_READY": 1}

	r := newRegistry(t, c)
	require.NoError(t, r.AddTable("A", "m.a"))
	require.NoError(t, r.RegisterPoint("DAQ_LINK_READY", "A", classify.KindReadyFlag))
	_, err := r.FetchTable(context.Background(), "A")
	require.NoError(t, err)
	before := r.Snapshot()

	c.errs["m.a"] = errcode.New(errcode.RPCMethod, "m.a", "board busy")
	c.words["m.a"] = map[string]uint32{"DAQ_LINK_READY": 0}
	_, err = r.FetchTable(context.Background(), "A")
	assert.True(t, errors.Is(err, errcode.RPCMethod))

	assert.Equal(t, before, r.Snapshot())
}

func TestFetchTable_MissingFieldRejectsWholeTable(t *testing.T) {
	c := newFakeCaller()
	c.words["m.a"] = map[string]uint32{"P1": 5}

	r := newRegistry(t, c)
	require.NoError(t, r.AddTable("A", "m.a"))
	require.NoError(t, r.RegisterPoint("P1", "A", classify.KindCounter))
	require.NoError(t, r.RegisterPoint("P2", "A", classify.KindCounter))

	_, err := r.FetchTable(context.Background(), "A")
	assert.True(t, errors.Is(err, errcode.MissingField))

	p1, _ := r.Point("P1")
	assert.Equal(t, classify.Unknown, p1.Raw, "present field must not be committed alone")
	assert.Zero(t, p1.Stamp)
}

func TestFetchTable_UncodedErrorIsTransport(t *testing.T) {
	c := newFakeCaller()
	c.errs["m.a"] = errors.New("dial tcp: connection refused")

	r := newRegistry(t, c)
	require.NoError(t, r.AddTable("A", "m.a"))
	_, err := r.FetchTable(context.Background(), "A")
	assert.True(t, errors.Is(err, errcode.Transport))
}

func TestFetchTable_UnknownTable(t *testing.T) {
	r := newRegistry(t, newFakeCaller())
	_, err := r.FetchTable(context.Background(), "nope")
	assert.True(t, errors.Is(err, errcode.InvalidParams))
}

func TestSnapshotPreservesOrder(t *testing.T) {
	r := newRegistry(t, newFakeCaller())
	require.NoError(t, r.AddTable("B", "m.b"))
	require.NoError(t, r.AddTable("A", "m.a"))
	for _, n := range []string{"z", "a", "m"} {
		require.NoError(t, r.RegisterPoint(n, "A", classify.KindCounter))
	}

	s := r.Snapshot()
	require.Len(t, s.Tables, 2)
	assert.Equal(t, "B", s.Tables[0].Name)
	var names []string
	for _, p := range s.Tables[1].Points {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"z", "a", "m"}, names)
}
