// internal/report/handler.go
package report

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/prometheus/common/log"

	"github.com/tamzrod/amc-monitor/internal/writer"
)

// NewHandler serves the viewer endpoints:
//
//	GET /                      shelf overview
//	GET /shelf/json            {board: {id: {class_name, value}}}
//	GET /boards/{board}        board panels
//	GET /boards/{board}/json   {id: {class_name, value}}
//	GET /boards/{board}/state  full last message
func NewHandler(st *Store, metricsPath string, logger log.Logger) http.Handler {
	if logger == nil {
		logger = log.Base()
	}
	h := &handler{store: st, metricsPath: metricsPath, log: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("GET /shelf/json", h.shelf)
	mux.HandleFunc("GET /boards/{board}", h.board)
	mux.HandleFunc("GET /boards/{board}/json", h.boardJSON)
	mux.HandleFunc("GET /boards/{board}/state", h.boardState)
	return mux
}

type handler struct {
	store       *Store
	metricsPath string
	log         log.Logger
}

func (h *handler) index(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := WriteIndex(&buf, h.store, h.metricsPath); err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (h *handler) shelf(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, ShelfContent(h.store))
}

func (h *handler) lookup(w http.ResponseWriter, r *http.Request) (BoardState, bool) {
	bs, ok := h.store.Get(r.PathValue("board"))
	if !ok {
		http.NotFound(w, r)
	}
	return bs, ok
}

func (h *handler) board(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := WriteBoard(&buf, bs); err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (h *handler) boardJSON(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, Content(bs.Update.Result.Report.Snapshot))
}

func (h *handler) boardState(w http.ResponseWriter, r *http.Request) {
	bs, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, writer.NewMessage(bs.Update))
}

func (h *handler) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (h *handler) fail(w http.ResponseWriter, err error) {
	h.log.Errorf("report: %v", err)
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
