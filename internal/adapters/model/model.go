package model

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ghalamif/wavescope/internal/adapters/history"
	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
)

var ErrDuplicateSeries = errors.New("model: series already registered")

// Model is the in-process data browser model: an ordered series list backed
// by a history.Store, the shared annotation list and the visible time range.
// Listeners receive typed events on their own goroutine-fed channels, so a
// writer never blocks on a slow reader.
type Model struct {
	mu          sync.RWMutex
	store       *history.Store
	series      []*series
	annotations []domain.Annotation
	start, end  time.Time
	subs        map[int]*subscriber
	nextSub     int
}

type series struct {
	info domain.SeriesInfo
	hist *history.History
}

func (s *series) Info() domain.SeriesInfo      { return s.info }
func (s *series) History() ports.SampleHistory { return s.hist }

func New(store *history.Store) *Model {
	return &Model{
		store: store,
		subs:  make(map[int]*subscriber),
	}
}

func (m *Model) AddSeries(info domain.SeriesInfo) (ports.Series, error) {
	if info.ID == "" {
		return nil, fmt.Errorf("model: series id is required")
	}
	m.mu.Lock()
	for _, s := range m.series {
		if s.info.ID == info.ID {
			m.mu.Unlock()
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSeries, info.ID)
		}
	}
	s := &series{info: info, hist: m.store.Register(info.ID)}
	m.series = append(m.series, s)
	m.mu.Unlock()

	m.emit(domain.ModelEvent{Kind: domain.SeriesAdded, SeriesID: info.ID})
	return s, nil
}

func (m *Model) RemoveSeries(id string) bool {
	m.mu.Lock()
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return false
	}
	m.series = append(m.series[:idx], m.series[idx+1:]...)
	m.mu.Unlock()

	m.store.Remove(id)
	m.emit(domain.ModelEvent{Kind: domain.SeriesRemoved, SeriesID: id})
	return true
}

// SetLook updates presentation details (display name, units, color).
func (m *Model) SetLook(id string, info domain.SeriesInfo) bool {
	m.mu.Lock()
	idx := m.indexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return false
	}
	info.ID = id
	// Handles are shared with readers, so swap in a new one.
	m.series[idx] = &series{info: info, hist: m.series[idx].hist}
	m.mu.Unlock()

	m.emit(domain.ModelEvent{Kind: domain.SeriesLookChanged, SeriesID: id})
	return true
}

func (m *Model) Series() []ports.Series {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ports.Series, len(m.series))
	for i, s := range m.series {
		out[i] = s
	}
	return out
}

func (m *Model) Lookup(id string) (ports.Series, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if idx := m.indexLocked(id); idx >= 0 {
		return m.series[idx], true
	}
	return nil, false
}

func (m *Model) Annotations() []domain.Annotation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Annotation, len(m.annotations))
	copy(out, m.annotations)
	return out
}

func (m *Model) ReplaceAnnotations(origin string, list []domain.Annotation) {
	cp := make([]domain.Annotation, len(list))
	copy(cp, list)

	m.mu.Lock()
	m.annotations = cp
	m.mu.Unlock()

	m.emit(domain.ModelEvent{Kind: domain.AnnotationsChanged, Origin: origin})
}

func (m *Model) SetTimeRange(start, end time.Time) {
	m.mu.Lock()
	m.start, m.end = start, end
	m.mu.Unlock()

	m.emit(domain.ModelEvent{Kind: domain.TimeRangeChanged})
}

func (m *Model) TimeRange() (time.Time, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.start, m.end
}

func (m *Model) Subscribe(buffer int) (<-chan domain.ModelEvent, func()) {
	sub := newSubscriber(buffer)

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = sub
	m.mu.Unlock()

	var once sync.Once
	return sub.out, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
			sub.close()
		})
	}
}

func (m *Model) indexLocked(id string) int {
	for i, s := range m.series {
		if s.info.ID == id {
			return i
		}
	}
	return -1
}

// emit is called without m.mu held.
func (m *Model) emit(ev domain.ModelEvent) {
	m.mu.RLock()
	subs := make([]*subscriber, 0, len(m.subs))
	for _, s := range m.subs {
		subs = append(subs, s)
	}
	m.mu.RUnlock()

	for _, s := range subs {
		s.push(ev)
	}
}

var _ ports.Model = (*Model)(nil)
