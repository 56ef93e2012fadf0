package wavescope

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPublisherBuffersUntilStart(t *testing.T) {
	pub := NewPublisher(2)
	s := Sample{SeriesID: "a", Timestamp: time.Unix(1, 0), Value: []float64{4}}
	if err := pub.TryPublish(s); err != nil {
		t.Fatalf("publish before start: %v", err)
	}

	out := make(chan *PipelineSample, 1)
	if err := pub.Start(out); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer pub.Stop()

	select {
	case got := <-out:
		if got.SeriesID != "a" || got.Value[0] != 4 {
			t.Fatalf("unexpected sample %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for forwarded sample")
	}

	if err := pub.Start(out); err == nil {
		t.Fatalf("expected second start to fail")
	}
}

func TestPublisherRejectsInvalidSamples(t *testing.T) {
	pub := NewPublisher(1)
	if err := pub.TryPublish(Sample{Timestamp: time.Unix(1, 0)}); !errors.Is(err, ErrInvalidSample) {
		t.Fatalf("expected ErrInvalidSample for missing series, got %v", err)
	}
	if err := pub.TryPublish(Sample{SeriesID: "a"}); !errors.Is(err, ErrInvalidSample) {
		t.Fatalf("expected ErrInvalidSample for missing timestamp, got %v", err)
	}
}

func TestPublisherFullAndClosed(t *testing.T) {
	pub := NewPublisher(1)
	s := Sample{SeriesID: "a", Timestamp: time.Unix(1, 0)}
	if err := pub.TryPublish(s); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if err := pub.TryPublish(s); !errors.Is(err, ErrFeedFull) {
		t.Fatalf("expected ErrFeedFull, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pub.Publish(ctx, s); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected blocking publish to time out, got %v", err)
	}

	if err := pub.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := pub.Publish(context.Background(), s); !errors.Is(err, ErrPublisherClosed) {
		t.Fatalf("expected ErrPublisherClosed, got %v", err)
	}
}
