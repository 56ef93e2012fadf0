package history

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
)

var (
	ErrIndexOutOfRange = errors.New("history: index out of range")
	ErrOutOfOrder      = errors.New("history: sample older than last appended")
	ErrHistoryFull     = errors.New("history: full")
	ErrUnknownSeries   = errors.New("history: unknown series")
)

// History is a bounded, time-ordered sample sequence for one series. All
// reads and appends happen under its mutex.
//
// data grows by append until it holds cap samples; from then on it is a ring
// and head points at the oldest sample. head stays 0 while data is not full.
type History struct {
	mu    sync.Mutex
	data  []*domain.Sample
	head  int
	cap   int
	evict bool
}

// New creates a history holding at most capacity samples. With evict set the
// oldest sample makes room for a new one; otherwise appends fail once full.
// A capacity <= 0 means unbounded.
func New(capacity int, evict bool) *History {
	initial := capacity
	if initial <= 0 || initial > 1024 {
		initial = 1024
	}
	return &History{
		data:  make([]*domain.Sample, 0, initial),
		cap:   capacity,
		evict: evict,
	}
}

func (h *History) WithLock(fn func(v ports.HistoryView) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn(lockedView{h})
}

func (h *History) Append(s *domain.Sample) error {
	if s == nil {
		return fmt.Errorf("history: nil sample")
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.data); n > 0 {
		if last := h.at(n - 1); s.Timestamp.Before(last.Timestamp) {
			return fmt.Errorf("%w: %s < %s", ErrOutOfOrder, s.Timestamp, last.Timestamp)
		}
	}
	if h.cap > 0 && len(h.data) >= h.cap {
		if !h.evict {
			return ErrHistoryFull
		}
		// Overwrite the oldest slot and advance the ring.
		h.data[h.head] = s
		h.head = (h.head + 1) % len(h.data)
		return nil
	}
	h.data = append(h.data, s)
	return nil
}

// at maps a logical index (0 = oldest) onto the ring. Callers hold mu.
func (h *History) at(i int) *domain.Sample {
	return h.data[(h.head+i)%len(h.data)]
}

// Len takes the lock for a one-off size read; the result may be stale as
// soon as it returns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.data)
}

type lockedView struct {
	h *History
}

func (v lockedView) Len() int { return len(v.h.data) }

func (v lockedView) Get(i int) (*domain.Sample, error) {
	if i < 0 || i >= len(v.h.data) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(v.h.data))
	}
	return v.h.at(i), nil
}

var _ ports.SampleHistory = (*History)(nil)
