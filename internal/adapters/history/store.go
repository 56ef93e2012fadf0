package history

import (
	"fmt"
	"sync"

	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
)

// Store owns the histories of all known series. The registry lock is never
// held while a history lock is taken, so callers can touch several series one
// after the other without lock-order concerns.
type Store struct {
	mu       sync.RWMutex
	series   map[string]*History
	capacity int
	evict    bool
}

func NewStore(pol ports.Policy) *Store {
	return &Store{
		series:   make(map[string]*History),
		capacity: pol.MaxHistoryLen,
		evict:    pol.OnHistoryFull != "drop",
	}
}

// Register returns the history for id, creating it if needed.
func (s *Store) Register(id string) *History {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.series[id]; ok {
		return h
	}
	h := New(s.capacity, s.evict)
	s.series[id] = h
	return h
}

func (s *Store) History(id string) (*History, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.series[id]
	return h, ok
}

func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.series, id)
}

// Append routes the sample to its series history.
func (s *Store) Append(sample *domain.Sample) error {
	h, ok := s.History(sample.SeriesID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSeries, sample.SeriesID)
	}
	return h.Append(sample)
}

// Sizes returns the current length of every history, taking one lock at a time.
func (s *Store) Sizes() map[string]int {
	s.mu.RLock()
	hs := make(map[string]*History, len(s.series))
	for id, h := range s.series {
		hs[id] = h
	}
	s.mu.RUnlock()

	out := make(map[string]int, len(hs))
	for id, h := range hs {
		out[id] = h.Len()
	}
	return out
}
