package server

import (
	"context"
	"sync"

	"github.com/matst80/slask-browse/pkg/types"
)

// ResultSnapshot is the renderer of an http session. It keeps the latest
// rendered results so requests can read them, or wait for a newer version.
type ResultSnapshot struct {
	mu      sync.Mutex
	version uint64
	items   []types.ResultItem
	active  int
	err     string
	changed chan struct{}
}

type Snapshot struct {
	Version       uint64             `json:"version"`
	Items         []types.ResultItem `json:"items"`
	Total         int                `json:"total"`
	ActiveFilters int                `json:"activeFilters"`
	Error         string             `json:"error,omitempty"`
}

func NewResultSnapshot() *ResultSnapshot {
	return &ResultSnapshot{
		items:   []types.ResultItem{},
		changed: make(chan struct{}),
	}
}

func (s *ResultSnapshot) Render(items []types.ResultItem, activeFilters int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.active = activeFilters
	s.err = ""
	s.bumpLocked()
}

// ReportError keeps the previous results and records the failure.
func (s *ResultSnapshot) ReportError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err.Error()
	s.bumpLocked()
}

func (s *ResultSnapshot) bumpLocked() {
	s.version++
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *ResultSnapshot) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *ResultSnapshot) currentLocked() Snapshot {
	return Snapshot{
		Version:       s.version,
		Items:         s.items,
		Total:         len(s.items),
		ActiveFilters: s.active,
		Error:         s.err,
	}
}

// Wait blocks until the version is newer than after or ctx is done, and
// returns the snapshot at that point.
func (s *ResultSnapshot) Wait(ctx context.Context, after uint64) Snapshot {
	for {
		s.mu.Lock()
		if s.version > after {
			defer s.mu.Unlock()
			return s.currentLocked()
		}
		changed := s.changed
		s.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return s.Current()
		}
	}
}
