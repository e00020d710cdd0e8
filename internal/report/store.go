// internal/report/store.go
package report

import (
	"context"
	"sync"
	"time"

	"github.com/tamzrod/amc-monitor/internal/monitor"
	"github.com/tamzrod/amc-monitor/internal/status"
	"github.com/tamzrod/amc-monitor/internal/writer"
)

// BoardState is the latest state of one board as seen by viewers.
type BoardState struct {
	Board   string
	Update  writer.Update
	Polled  bool
	Updated time.Time
}

// Store holds the latest update per board. Safe for concurrent use:
// pollers write, HTTP handlers and the exporter read.
type Store struct {
	mu     sync.RWMutex
	order  []string
	boards map[string]BoardState
}

// NewStore declares the boards in display order.
func NewStore(boards ...string) *Store {
	s := &Store{boards: make(map[string]BoardState, len(boards))}
	for _, b := range boards {
		s.declareLocked(b)
	}
	return s
}

func (s *Store) declareLocked(board string) {
	if _, ok := s.boards[board]; ok {
		return
	}
	s.order = append(s.order, board)
	s.boards[board] = BoardState{
		Board:  board,
		Update: writer.Update{Status: status.Snapshot{Health: status.HealthUnknown}},
	}
}

// Write stores u as the latest state of its board.
func (s *Store) Write(ctx context.Context, u writer.Update) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	board := u.Result.BoardID
	s.declareLocked(board)
	s.boards[board] = BoardState{
		Board:   board,
		Update:  u,
		Polled:  true,
		Updated: u.Result.At,
	}
	return nil
}

// Seed shows the registered points of a board before its first poll.
func (s *Store) Seed(board string, snap monitor.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.declareLocked(board)
	bs := s.boards[board]
	if bs.Polled {
		return
	}
	bs.Update.Result.BoardID = board
	bs.Update.Result.Report.Snapshot = snap
	s.boards[board] = bs
}

// SetStatus replaces the health snapshot of a board between polls.
func (s *Store) SetStatus(board string, st status.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.declareLocked(board)
	bs := s.boards[board]
	bs.Update.Status = st
	s.boards[board] = bs
}

// Get returns the latest state of a board.
func (s *Store) Get(board string) (BoardState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bs, ok := s.boards[board]
	return bs, ok
}

// Boards returns board ids in display order.
func (s *Store) Boards() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// All returns every board state in display order.
func (s *Store) All() []BoardState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]BoardState, 0, len(s.order))
	for _, b := range s.order {
		out = append(out, s.boards[b])
	}
	return out
}
