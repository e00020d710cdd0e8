// internal/monitor/snapshot.go
package monitor

import "github.com/tamzrod/amc-monitor/internal/classify"

// Snapshot is an immutable view of a registry at one logical time.
type Snapshot struct {
	Board  string      `json:"board"`
	Clock  uint64      `json:"clock"`
	Tables []TableView `json:"tables"`
}

// TableView is one table of a snapshot.
type TableView struct {
	Name   string      `json:"name"`
	Points []PointView `json:"points"`
}

// PointView is the exported form of one point: identifier, raw value and label.
type PointView struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Kind     classify.Kind     `json:"kind"`
	Raw      uint32            `json:"raw"`
	Stamp    uint64            `json:"stamp"`
	Text     string            `json:"text"`
	Category classify.Category `json:"category"`
	Class    string            `json:"class"`
}

// Known reports whether the point has ever been read.
func (p PointView) Known() bool { return p.Raw != classify.Unknown }

// Table returns a table by name.
func (s Snapshot) Table(name string) (TableView, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableView{}, false
}

// Lookup finds a point by name in any table.
func (s Snapshot) Lookup(name string) (PointView, bool) {
	for _, t := range s.Tables {
		if p, ok := t.Lookup(name); ok {
			return p, true
		}
	}
	return PointView{}, false
}

// Lookup finds a point by name.
func (t TableView) Lookup(name string) (PointView, bool) {
	for _, p := range t.Points {
		if p.Name == name {
			return p, true
		}
	}
	return PointView{}, false
}

// Points returns every point in table then registration order.
func (s Snapshot) Points() []PointView {
	var out []PointView
	for _, t := range s.Tables {
		out = append(out, t.Points...)
	}
	return out
}

// Unknown counts points that have never been read.
func (s Snapshot) Unknown() int {
	n := 0
	for _, t := range s.Tables {
		for _, p := range t.Points {
			if !p.Known() {
				n++
			}
		}
	}
	return n
}
