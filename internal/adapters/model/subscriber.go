package model

import (
	"sync"

	"github.com/ghalamif/wavescope/internal/domain"
)

// subscriber buffers events without bound and pumps them into out, keeping
// per-subscriber order.
type subscriber struct {
	mu      sync.Mutex
	pending []domain.ModelEvent
	wake    chan struct{}
	done    chan struct{}
	out     chan domain.ModelEvent
	once    sync.Once
}

func newSubscriber(buffer int) *subscriber {
	if buffer < 0 {
		buffer = 0
	}
	s := &subscriber{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan domain.ModelEvent, buffer),
	}
	go s.pump()
	return s
}

func (s *subscriber) push(ev domain.ModelEvent) {
	s.mu.Lock()
	s.pending = append(s.pending, ev)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		batch := s.pending
		s.pending = nil
		s.mu.Unlock()

		for _, ev := range batch {
			select {
			case s.out <- ev:
			case <-s.done:
				return
			}
		}

		select {
		case <-s.wake:
		case <-s.done:
			return
		}
	}
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.done) })
}
