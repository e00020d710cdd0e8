// internal/report/content.go
package report

import "github.com/tamzrod/amc-monitor/internal/monitor"

// Cell is the display form of one point, keyed by its label id.
type Cell struct {
	ClassName string `json:"class_name"`
	Value     string `json:"value"`
}

// Content maps every point id of a snapshot to its cell.
func Content(s monitor.Snapshot) map[string]Cell {
	out := make(map[string]Cell)
	for _, t := range s.Tables {
		for _, p := range t.Points {
			out[p.ID] = Cell{ClassName: p.Class, Value: p.Text}
		}
	}
	return out
}

// ShelfContent maps every board of the store to its content.
func ShelfContent(st *Store) map[string]map[string]Cell {
	out := make(map[string]map[string]Cell)
	for _, bs := range st.All() {
		out[bs.Board] = Content(bs.Update.Result.Report.Snapshot)
	}
	return out
}
