package pipeline

import (
	"context"

	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
)

// SampleAppender is the write side of the history store.
type SampleAppender interface {
	Append(s *domain.Sample) error
}

// RunFeedPipeline starts the collector and moves every sample it produces
// through the journal (when one is given) into the store. The returned channel
// is closed once ctx is cancelled and the feed goroutine has exited.
func RunFeedPipeline(ctx context.Context, col ports.Collector, journal ports.Journal, store SampleAppender, pol ports.Policy, obs ports.Observability) (<-chan struct{}, error) {
	buf := pol.FeedBuffer
	if buf <= 0 {
		buf = 1
	}
	ch := make(chan *domain.Sample, buf)

	if err := col.Start(ch); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-ch:
				feedOne(s, journal, store, obs)
			}
		}
	}()

	return done, nil
}

func feedOne(s *domain.Sample, journal ports.Journal, store SampleAppender, obs ports.Observability) {
	if s == nil {
		return
	}
	// A journal failure costs durability only; the sample is still shown.
	if journal != nil {
		if _, err := journal.Append(s); err != nil {
			obs.LogCritical("journal_append_failed", err, ports.Field{Key: "series", Value: s.SeriesID})
		}
	}

	if err := store.Append(s); err != nil {
		obs.RecordRejected(s, err)
		return
	}
	obs.IncCounter("wavescope_samples_appended_total", 1)
}
