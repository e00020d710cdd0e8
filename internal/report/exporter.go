// internal/report/exporter.go
package report

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/amc-monitor/internal/amc"
	"github.com/tamzrod/amc-monitor/internal/classify"
	"github.com/tamzrod/amc-monitor/internal/errcode"
	"github.com/tamzrod/amc-monitor/internal/writer"
)

const namespace = "amcmon"

var (
	pointLabelNames = []string{"board", "table", "point", "kind"}

	pointRawMetric = prometheus.NewDesc(prometheus.BuildFQName(namespace, "point", "raw"),
		"Last committed raw value of a monitored point. Never-read points are not exported.", pointLabelNames, nil)
	pointCategoryMetric = prometheus.NewDesc(prometheus.BuildFQName(namespace, "point", "category"),
		"Status category of a monitored point: 0 unknown, 1 neutral, 2 info, 3 success, 4 warning, 5 danger.", pointLabelNames, nil)

	boardUpMetric = prometheus.NewDesc(prometheus.BuildFQName(namespace, "board", "up"),
		"Did the last poll refresh every table of the board.", []string{"board"}, nil)
	boardHealthMetric = prometheus.NewDesc(prometheus.BuildFQName(namespace, "board", "health_code"),
		"Board health code as written to the status block.", []string{"board"}, nil)
	boardSecondsInErrorMetric = prometheus.NewDesc(prometheus.BuildFQName(namespace, "board", "seconds_in_error"),
		"Seconds the board has been out of OK.", []string{"board"}, nil)
	boardLastPollMetric = prometheus.NewDesc(prometheus.BuildFQName(namespace, "board", "last_poll_timestamp_seconds"),
		"Time of the last completed poll.", []string{"board"}, nil)
	boardUnknownMetric = prometheus.NewDesc(prometheus.BuildFQName(namespace, "board", "unknown_points"),
		"Points that have never been read.", []string{"board"}, nil)
	linkActiveMetric = prometheus.NewDesc(prometheus.BuildFQName(namespace, "link", "active"),
		"Is the optical link present in the active link mask.", []string{"board", "link"}, nil)
)

// Exporter exposes the store and poll outcomes as Prometheus metrics.
// It is also a writer sink: every update bumps the poll counters.
type Exporter struct {
	store *Store
	mutex sync.Mutex

	polls         *prometheus.CounterVec
	tableFailures *prometheus.CounterVec
	rpcDuration   *prometheus.HistogramVec
}

// NewExporter creates an exporter reading st.
func NewExporter(st *Store) *Exporter {
	return &Exporter{
		store: st,
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Completed poll cycles per board.",
		}, []string{"board"}),
		tableFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_failures_total",
			Help:      "Table fetches that left the table unchanged, by error code.",
		}, []string{"board", "table", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Histogram of remote call latencies.",
		}, []string{"board", "method", "code"}),
	}
}

// Write counts one poll and its failed tables.
func (e *Exporter) Write(ctx context.Context, u writer.Update) error {
	board := u.Result.BoardID
	e.polls.WithLabelValues(board).Inc()
	for _, f := range u.Result.Report.Failed() {
		e.tableFailures.WithLabelValues(board, f.Table, string(errcode.Of(f.Err))).Inc()
	}
	return nil
}

// ObserveRPC records one remote call. Its signature matches poller.Observer.
func (e *Exporter) ObserveRPC(board, method string, took time.Duration, err error) {
	e.rpcDuration.WithLabelValues(board, method, string(errcode.Of(err))).Observe(took.Seconds())
}

func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- pointRawMetric
	ch <- pointCategoryMetric
	ch <- boardUpMetric
	ch <- boardHealthMetric
	ch <- boardSecondsInErrorMetric
	ch <- boardLastPollMetric
	ch <- boardUnknownMetric
	ch <- linkActiveMetric
	e.polls.Describe(ch)
	e.tableFailures.Describe(ch)
	e.rpcDuration.Describe(ch)
}

func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	for _, bs := range e.store.All() {
		e.collectBoard(ch, bs)
	}

	e.polls.Collect(ch)
	e.tableFailures.Collect(ch)
	e.rpcDuration.Collect(ch)
}

func (e *Exporter) collectBoard(ch chan<- prometheus.Metric, bs BoardState) {
	res := bs.Update.Result
	st := bs.Update.Status

	var up float64
	if bs.Polled && res.Err == nil && len(res.Report.Failed()) == 0 {
		up = 1
	}
	ch <- prometheus.MustNewConstMetric(boardUpMetric, prometheus.GaugeValue, up, bs.Board)
	ch <- prometheus.MustNewConstMetric(boardHealthMetric, prometheus.GaugeValue, float64(st.Health), bs.Board)
	ch <- prometheus.MustNewConstMetric(boardSecondsInErrorMetric, prometheus.GaugeValue, float64(st.SecondsInError), bs.Board)
	ch <- prometheus.MustNewConstMetric(boardUnknownMetric, prometheus.GaugeValue, float64(res.Report.Snapshot.Unknown()), bs.Board)

	if !bs.Polled {
		return
	}
	ch <- prometheus.MustNewConstMetric(boardLastPollMetric, prometheus.GaugeValue, float64(bs.Updated.Unix()), bs.Board)

	if res.HasDevice {
		for link := 0; link < amc.MaxLinkBits; link++ {
			var active float64
			if res.LinkMask&(1<<uint(link)) != 0 {
				active = 1
			}
			ch <- prometheus.MustNewConstMetric(linkActiveMetric, prometheus.GaugeValue, active, bs.Board, strconv.Itoa(link))
		}
	}

	for _, t := range res.Report.Snapshot.Tables {
		for _, p := range t.Points {
			if p.Raw == classify.Unknown {
				continue
			}
			labels := []string{bs.Board, t.Name, p.Name, p.Kind.String()}
			ch <- prometheus.MustNewConstMetric(pointRawMetric, prometheus.GaugeValue, float64(p.Raw), labels...)
			ch <- prometheus.MustNewConstMetric(pointCategoryMetric, prometheus.GaugeValue, float64(p.Category), labels...)
		}
	}
}
