package inspector

import (
	"sync"
	"time"

	"github.com/bep/debounce"
)

const DefaultSettleDelay = 500 * time.Millisecond

type DebounceState int

const (
	Idle DebounceState = iota
	Pending
)

func (s DebounceState) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Debouncer collapses bursts of Signal calls into one settle callback that
// runs once the signals have been quiet for the configured delay. The
// callback runs on a timer goroutine.
type Debouncer struct {
	mu       sync.Mutex
	state    DebounceState
	gen      uint64
	stopped  bool
	schedule func(func())
	settle   func()
}

func NewDebouncer(quiet time.Duration, settle func()) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultSettleDelay
	}
	return &Debouncer{
		schedule: debounce.New(quiet),
		settle:   settle,
	}
}

// Signal (re)starts the quiet interval. A timer that is already running its
// callback may finish, but it will not settle once superseded.
func (d *Debouncer) Signal() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.gen++
	gen := d.gen
	d.state = Pending
	d.mu.Unlock()

	d.schedule(func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen || d.state != Pending {
		d.mu.Unlock()
		return
	}
	d.state = Idle
	d.mu.Unlock()

	d.settle()
}

func (d *Debouncer) State() DebounceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Stop discards any pending settle. Later signals are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.state = Idle
	d.gen++
}
