// internal/report/handler_test.go
package report

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/common/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/amc-monitor/internal/writer"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := NewStore("amc02")
	require.NoError(t, st.Write(context.Background(), polledUpdate(t, newBoard(t, "amc02", 2, "getmonTTCmain"))))

	srv := httptest.NewServer(NewHandler(st, "/metrics", log.NewNopLogger()))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHandler_BoardJSON(t *testing.T) {
	srv := newTestServer(t)

	var content map[string]Cell
	getJSON(t, srv.URL+"/boards/amc02/json", &content)
	assert.Equal(t, Cell{ClassName: "label label-success", Value: "READY"}, content["amc02.TTS_STATE"])
}

func TestHandler_ShelfJSON(t *testing.T) {
	srv := newTestServer(t)

	var shelf map[string]map[string]Cell
	getJSON(t, srv.URL+"/shelf/json", &shelf)
	require.Contains(t, shelf, "amc02")
	assert.Equal(t, "X", shelf["amc02"]["amc02.MMCM_LOCKED"].Value)
}

func TestHandler_BoardState(t *testing.T) {
	srv := newTestServer(t)

	var msg writer.Message
	getJSON(t, srv.URL+"/boards/amc02/state", &msg)
	assert.Equal(t, "amc02", msg.Board)
	require.Len(t, msg.Failed, 1)
	assert.Equal(t, "DAQ_TTC_MAIN", msg.Failed[0].Table)
}

func TestHandler_Pages(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/", "/boards/amc02"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"), path)
	}
}

func TestHandler_UnknownBoard(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/boards/nope", "/boards/nope/json", "/nothing"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}
