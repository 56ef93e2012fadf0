package inspector

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncerCoalescesBurst(t *testing.T) {
	const quiet = 60 * time.Millisecond

	var (
		mu      sync.Mutex
		settles []time.Time
	)
	d := NewDebouncer(quiet, func() {
		mu.Lock()
		settles = append(settles, time.Now())
		mu.Unlock()
	})

	var last time.Time
	for i := 0; i < 10; i++ {
		last = time.Now()
		d.Signal()
		time.Sleep(5 * time.Millisecond)
	}
	if d.State() != Pending {
		t.Fatalf("expected pending state during burst, got %s", d.State())
	}

	time.Sleep(quiet * 4)

	mu.Lock()
	defer mu.Unlock()
	if len(settles) != 1 {
		t.Fatalf("expected exactly one settle, got %d", len(settles))
	}
	if settles[0].Sub(last) < quiet {
		t.Fatalf("settle fired %s after the last signal, expected at least %s", settles[0].Sub(last), quiet)
	}
	if d.State() != Idle {
		t.Fatalf("expected idle after settle, got %s", d.State())
	}
}

func TestDebouncerSeparateBurstsSettleSeparately(t *testing.T) {
	var count atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { count.Add(1) })

	d.Signal()
	time.Sleep(100 * time.Millisecond)
	d.Signal()
	time.Sleep(100 * time.Millisecond)

	if got := count.Load(); got != 2 {
		t.Fatalf("expected 2 settles, got %d", got)
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	var count atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { count.Add(1) })

	d.Signal()
	d.Stop()
	d.Signal()
	time.Sleep(80 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Fatalf("expected no settle after stop, got %d", got)
	}
	if d.State() != Idle {
		t.Fatalf("expected idle after stop, got %s", d.State())
	}
}

func TestDebouncerSupersededTimerDoesNotSettle(t *testing.T) {
	var count atomic.Int32
	d := NewDebouncer(time.Hour, func() { count.Add(1) })

	d.Signal()
	stale := d.gen
	d.Signal()

	// A timer from the first signal that was already running when the
	// second signal arrived.
	d.fire(stale)
	if got := count.Load(); got != 0 {
		t.Fatalf("superseded timer settled")
	}
	d.fire(d.gen)
	if got := count.Load(); got != 1 {
		t.Fatalf("expected the current generation to settle once, got %d", got)
	}
	d.fire(d.gen)
	if got := count.Load(); got != 1 {
		t.Fatalf("settle must run once per pending period, got %d", got)
	}
	d.Stop()
}
