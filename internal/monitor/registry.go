// internal/monitor/registry.go
package monitor

import (
	"context"
	"errors"
	"fmt"

	"github.com/tamzrod/amc-monitor/internal/classify"
	"github.com/tamzrod/amc-monitor/internal/errcode"
	"github.com/tamzrod/amc-monitor/internal/rpc"
)

// Point is one monitored value.
// Raw is classify.Unknown until the first successful fetch of its table.
type Point struct {
	Name  string
	Table string
	Kind  classify.Kind
	Raw   uint32
	Stamp uint64
}

// Label derives the current display label.
func (p Point) Label() classify.Label {
	return classify.Classify(p.Kind, p.Raw)
}

type table struct {
	name   string
	method string
	args   []rpc.Arg
	points []string
}

// Batch is the committed result of one table fetch.
type Batch struct {
	Table  string
	Stamp  uint64
	Values map[string]uint32
}

// Registry holds monitor points grouped into tables fetched by one remote call each.
// It has a single owner: setup, fetches and snapshots are not synchronized.
type Registry struct {
	board  string
	caller rpc.Caller

	order  []*table
	tables map[string]*table
	points map[string]*Point

	clock uint64
}

// NewRegistry creates an empty registry for board.
func NewRegistry(board string, caller rpc.Caller) (*Registry, error) {
	if board == "" {
		return nil, errors.New("monitor: board name required")
	}
	if caller == nil {
		return nil, errors.New("monitor: rpc caller required")
	}
	return &Registry{
		board:  board,
		caller: caller,
		tables: map[string]*table{},
		points: map[string]*Point{},
	}, nil
}

// Board returns the board name used in point ids.
func (r *Registry) Board() string { return r.board }

// AddTable declares a table fetched by method with the given arguments.
func (r *Registry) AddTable(name, method string, args ...rpc.Arg) error {
	if name == "" || method == "" {
		return errcode.New(errcode.InvalidParams, "add table", "name and method required")
	}
	if _, dup := r.tables[name]; dup {
		return errcode.New(errcode.DuplicateName, "add table", fmt.Sprintf("table %q already declared", name))
	}
	t := &table{name: name, method: method, args: append([]rpc.Arg(nil), args...)}
	r.tables[name] = t
	r.order = append(r.order, t)
	return nil
}

// RegisterPoint adds a point to a declared table. Point names are unique across all tables.
func (r *Registry) RegisterPoint(name, tableName string, kind classify.Kind) error {
	if name == "" {
		return errcode.New(errcode.InvalidParams, "register point", "name required")
	}
	t, ok := r.tables[tableName]
	if !ok {
		return errcode.New(errcode.InvalidParams, "register point",
			fmt.Sprintf("point %q: unknown table %q", name, tableName))
	}
	if p, dup := r.points[name]; dup {
		return errcode.New(errcode.DuplicateName, "register point",
			fmt.Sprintf("point %q already in table %q", name, p.Table))
	}
	r.points[name] = &Point{Name: name, Table: tableName, Kind: kind, Raw: classify.Unknown}
	t.points = append(t.points, name)
	return nil
}

// Tables lists table names in declaration order.
func (r *Registry) Tables() []string {
	out := make([]string, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, t.name)
	}
	return out
}

// TablePoints lists a table's point names in registration order.
func (r *Registry) TablePoints(tableName string) ([]string, bool) {
	t, ok := r.tables[tableName]
	if !ok {
		return nil, false
	}
	return append([]string(nil), t.points...), true
}

// Point returns a copy of one point.
func (r *Registry) Point(name string) (Point, bool) {
	p, ok := r.points[name]
	if !ok {
		return Point{}, false
	}
	return *p, true
}

// Len returns the number of registered points.
func (r *Registry) Len() int { return len(r.points) }

// FetchTable issues the table's remote call and commits the reply.
//
// On any error no point changes: a failed call leaves the previous values, and
// a reply lacking a declared point is rejected whole with errcode.MissingField.
func (r *Registry) FetchTable(ctx context.Context, tableName string) (Batch, error) {
	t, ok := r.tables[tableName]
	if !ok {
		return Batch{}, errcode.New(errcode.InvalidParams, "fetch table", fmt.Sprintf("unknown table %q", tableName))
	}

	req := &rpc.Request{Method: t.method, Args: append([]rpc.Arg(nil), t.args...)}
	resp, err := r.caller.Call(ctx, req)
	if err != nil {
		if errcode.Of(err) == errcode.Error {
			err = errcode.Wrap(errcode.Transport, t.method, err)
		}
		return Batch{}, err
	}

	values := make(map[string]uint32, len(t.points))
	for _, name := range t.points {
		v, err := resp.Word(name)
		if err != nil {
			return Batch{}, err
		}
		values[name] = v
	}

	r.clock++
	for name, v := range values {
		p := r.points[name]
		p.Raw = v
		p.Stamp = r.clock
	}
	return Batch{Table: t.name, Stamp: r.clock, Values: values}, nil
}

// Snapshot renders every table with freshly derived labels.
func (r *Registry) Snapshot() Snapshot {
	s := Snapshot{
		Board:  r.board,
		Clock:  r.clock,
		Tables: make([]TableView, 0, len(r.order)),
	}
	for _, t := range r.order {
		tv := TableView{Name: t.name, Points: make([]PointView, 0, len(t.points))}
		for _, name := range t.points {
			tv.Points = append(tv.Points, r.view(r.points[name]))
		}
		s.Tables = append(s.Tables, tv)
	}
	return s
}

func (r *Registry) view(p *Point) PointView {
	l := p.Label()
	return PointView{
		ID:       r.board + "." + p.Name,
		Name:     p.Name,
		Kind:     p.Kind,
		Raw:      p.Raw,
		Stamp:    p.Stamp,
		Text:     l.Text,
		Category: l.Category,
		Class:    l.Category.Class(),
	}
}
