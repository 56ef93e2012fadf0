package wavescope

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
)

var (
	// ErrPublisherClosed is returned by Publish after Stop.
	ErrPublisherClosed = errors.New("wavescope: publisher closed")
	// ErrFeedFull is returned by TryPublish when the buffer is full.
	ErrFeedFull = errors.New("wavescope: feed full")
	// ErrInvalidSample is returned for samples without a series id or timestamp.
	ErrInvalidSample = errors.New("wavescope: invalid sample")
)

// Publisher is a push Collector: any Go code can hand samples to it and the
// runtime's feed pipeline moves them into the series histories. Samples
// published before the runtime starts wait in the buffer.
type Publisher struct {
	in     chan *domain.Sample
	stopCh chan struct{}
	doneCh chan struct{}

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
}

// NewPublisher creates a publisher buffering up to buffer samples.
func NewPublisher(buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 1_024
	}
	return &Publisher{
		in:     make(chan *domain.Sample, buffer),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Publish queues the sample, blocking while the buffer is full.
func (p *Publisher) Publish(ctx context.Context, sample Sample) error {
	dom, err := validate(sample)
	if err != nil {
		return err
	}
	select {
	case <-p.stopCh:
		return ErrPublisherClosed
	default:
	}

	select {
	case <-p.stopCh:
		return ErrPublisherClosed
	case <-ctx.Done():
		return ctx.Err()
	case p.in <- dom:
		return nil
	}
}

// TryPublish queues the sample or fails with ErrFeedFull without blocking.
func (p *Publisher) TryPublish(sample Sample) error {
	dom, err := validate(sample)
	if err != nil {
		return err
	}
	select {
	case <-p.stopCh:
		return ErrPublisherClosed
	default:
	}

	select {
	case p.in <- dom:
		return nil
	default:
		return ErrFeedFull
	}
}

func (p *Publisher) Start(out chan<- *domain.Sample) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return fmt.Errorf("publisher already started")
	}
	select {
	case <-p.stopCh:
		return ErrPublisherClosed
	default:
	}
	p.started = true

	go p.forward(out)
	return nil
}

// Stop ends forwarding. Samples still buffered are discarded.
func (p *Publisher) Stop() error {
	p.stopOnce.Do(func() {
		close(p.stopCh)
	})

	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if started {
		<-p.doneCh
	}
	return nil
}

func (p *Publisher) forward(out chan<- *domain.Sample) {
	defer close(p.doneCh)
	for {
		select {
		case <-p.stopCh:
			return
		case s := <-p.in:
			select {
			case <-p.stopCh:
				return
			case out <- s:
			}
		}
	}
}

func validate(s Sample) (*domain.Sample, error) {
	if s.SeriesID == "" {
		return nil, fmt.Errorf("%w: series id is required", ErrInvalidSample)
	}
	if s.Timestamp.IsZero() {
		return nil, fmt.Errorf("%w: timestamp is required", ErrInvalidSample)
	}
	return s.toDomain(), nil
}

var _ ports.Collector = (*Publisher)(nil)
