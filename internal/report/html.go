// internal/report/html.go
package report

import (
	"fmt"
	"html/template"
	"io"
	"math/bits"
	"strings"
	"time"

	"github.com/tamzrod/amc-monitor/internal/monitor"
	"github.com/tamzrod/amc-monitor/internal/status"
)

type cell struct {
	ID    string
	Text  string
	Class string
}

type listRow struct {
	Name string
	Cell cell
}

type listPanel struct {
	Title string
	Rows  []listRow
}

type matrixRow struct {
	Name  string
	Cells []cell
}

type matrixPanel struct {
	Title   string
	Columns []string
	Rows    []matrixRow
}

type boardPage struct {
	Board    string
	Health   string
	Seq      uint64
	Updated  string
	Failed   []string
	Lists    []listPanel
	Matrices []matrixPanel
}

var boardTemplate = template.Must(template.New("board").Parse(`<html>
<head><title>{{.Board}} - AMC Monitor</title></head>
<body>
<h1>{{.Board}}</h1>
<p>health <span id="{{.Board}}.HEALTH">{{.Health}}</span>, cycle {{.Seq}}{{if .Updated}} at {{.Updated}}{{end}}</p>
{{if .Failed}}<p>stale tables:{{range .Failed}} {{.}}{{end}}</p>
{{end}}
{{- range .Lists}}
<h2>{{.Title}}</h2>
<table class="table table-condensed">
<thead><tr><th>Point</th><th>Value</th></tr></thead>
<tbody>
{{- range .Rows}}
<tr><td>{{.Name}}</td><td><span id="{{.Cell.ID}}" class="{{.Cell.Class}}">{{.Cell.Text}}</span></td></tr>
{{- end}}
</tbody>
</table>
{{- end}}
{{- range .Matrices}}
<h2>{{.Title}}</h2>
<table class="table table-condensed">
<thead><tr><th>Register</th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr><td>{{.Name}}</td>{{range .Cells}}<td><span id="{{.ID}}" class="{{.Class}}">{{.Text}}</span></td>{{end}}</tr>
{{- end}}
</tbody>
</table>
{{- end}}
</body>
</html>
`))

var indexTemplate = template.Must(template.New("index").Parse(`<html>
<head><title>AMC Monitor</title></head>
<body>
<h1>AMC Monitor</h1>
<table class="table table-condensed">
<thead><tr><th>Board</th><th>Health</th><th>Links</th></tr></thead>
<tbody>
{{- range .Boards}}
<tr><td><a href="boards/{{.Board}}">{{.Board}}</a></td><td>{{.Health}}</td><td>{{.Links}}</td></tr>
{{- end}}
</tbody>
</table>
<p><a href="shelf/json">Shelf JSON</a></p>
<p><a href="{{.MetricsPath}}">Metrics</a></p>
</body>
</html>
`))

type indexRow struct {
	Board  string
	Health string
	Links  string
}

type indexPage struct {
	Boards      []indexRow
	MetricsPath string
}

// WriteIndex renders the shelf overview.
func WriteIndex(w io.Writer, st *Store, metricsPath string) error {
	page := indexPage{MetricsPath: metricsPath}
	for _, bs := range st.All() {
		links := "-"
		if bs.Update.Result.HasDevice {
			links = linkString(bs.Update.Result.LinkMask)
		}
		page.Boards = append(page.Boards, indexRow{
			Board:  bs.Board,
			Health: status.HealthName(bs.Update.Status.Health),
			Links:  links,
		})
	}
	return indexTemplate.Execute(w, page)
}

// WriteBoard renders the DAQ, TTC, trigger and optical link panels of a board.
func WriteBoard(w io.Writer, bs BoardState) error {
	res := bs.Update.Result
	snap := res.Report.Snapshot

	page := boardPage{
		Board:  bs.Board,
		Health: status.HealthName(bs.Update.Status.Health),
		Seq:    res.Report.Seq,
	}
	if bs.Polled {
		page.Updated = bs.Updated.UTC().Format(time.RFC3339)
	}
	for _, f := range res.Report.Failed() {
		page.Failed = append(page.Failed, f.Table)
	}

	page.Lists = []listPanel{
		tablePanel("DAQ", snap, monitor.TableDAQ),
		tablePanel("TTC", snap, monitor.TableTTC),
	}

	noh := ohCount(snap)
	page.Matrices = []matrixPanel{
		ohMatrix("TRIGGER", snap, monitor.TriggerFields, noh),
		ohMatrix("OPTICAL LINKS", snap, monitor.OpticalRows(), noh),
	}

	return boardTemplate.Execute(w, page)
}

func toCell(p monitor.PointView) cell {
	return cell{ID: p.ID, Text: p.Text, Class: p.Class}
}

func tablePanel(title string, snap monitor.Snapshot, table string) listPanel {
	panel := listPanel{Title: title}
	t, ok := snap.Table(table)
	if !ok {
		return panel
	}
	for _, p := range t.Points {
		panel.Rows = append(panel.Rows, listRow{Name: p.Name, Cell: toCell(p)})
	}
	return panel
}

// ohCount infers the number of OptoHybrids from the per-OH firmware points.
func ohCount(snap monitor.Snapshot) uint {
	var n uint
	for {
		if _, ok := snap.Lookup(monitor.OHPoint(n, monitor.OptoHybridFields[0].Name)); !ok {
			return n
		}
		n++
	}
}

func ohMatrix(title string, snap monitor.Snapshot, rows []monitor.Field, noh uint) matrixPanel {
	panel := matrixPanel{Title: title}
	for oh := uint(0); oh < noh; oh++ {
		panel.Columns = append(panel.Columns, monitor.OHPoint(oh, ""))
	}
	for _, f := range rows {
		row := matrixRow{Name: strings.TrimPrefix(f.Name, ".")}
		for oh := uint(0); oh < noh; oh++ {
			p, ok := snap.Lookup(monitor.OHPoint(oh, f.Name))
			if !ok {
				row.Cells = append(row.Cells, cell{Text: "-", Class: "label label-default"})
				continue
			}
			row.Cells = append(row.Cells, toCell(p))
		}
		panel.Rows = append(panel.Rows, row)
	}
	return panel
}

func linkString(mask uint32) string {
	return fmt.Sprintf("%d (0x%08x)", bits.OnesCount32(mask), mask)
}
