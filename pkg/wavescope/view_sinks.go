package wavescope

import (
	"sync"
	"time"

	"github.com/ghalamif/wavescope/internal/ports"
)

// Selection is the caller-facing copy of a selection change.
type Selection struct {
	Enabled       bool
	Index         int
	Max           int
	Primary       time.Time
	Samples       []Sample
	TimestampText string
	StatusText    string
}

// SelectionHandler is invoked with every selection change.
type SelectionHandler func(Selection)

// NewCallbackSink adapts a SelectionHandler into a SelectionSink so callers
// can plug arbitrary functions without defining structs. The handler runs on
// the inspector goroutine and should return quickly.
func NewCallbackSink(name string, fn SelectionHandler) SelectionSink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes selections via a channel; it returns the sink, the
// read-only channel, and a close function that the caller should invoke
// during shutdown. A slow reader never stalls the inspector: when the buffer
// is full the oldest pending selection is discarded.
func NewChannelSink(name string, buffer int) (SelectionSink, <-chan Selection, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer <= 0 {
		buffer = 1
	}
	s := &channelSink{
		name: name,
		ch:   make(chan Selection, buffer),
	}
	return s, s.ch, s.close
}

type callbackSink struct {
	name string
	fn   SelectionHandler
}

func (s *callbackSink) Notify(u ports.SelectionUpdate) {
	if s.fn == nil {
		return
	}
	s.fn(selectionFromUpdate(u))
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	mu     sync.Mutex
	ch     chan Selection
	closed bool
}

func (s *channelSink) Notify(u ports.SelectionUpdate) {
	sel := selectionFromUpdate(u)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- sel:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *channelSink) Name() string { return s.name }

func (s *channelSink) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

func selectionFromUpdate(u ports.SelectionUpdate) Selection {
	sel := Selection{
		Enabled:       u.Enabled,
		Index:         u.Index,
		Max:           u.Max,
		Primary:       u.Primary,
		TimestampText: u.Fields.TimestampText,
		StatusText:    u.Fields.StatusText,
	}
	if len(u.Samples) > 0 {
		sel.Samples = make([]Sample, len(u.Samples))
		for i, s := range u.Samples {
			sel.Samples[i] = sampleFromDomain(s)
		}
	}
	return sel
}
