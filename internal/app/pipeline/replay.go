package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
)

// Backfill loads [start, end] from the archive for every series and appends it
// to the store. Errors of one series do not stop the others; they are joined.
func Backfill(ctx context.Context, archive ports.Archive, store SampleAppender, seriesIDs []string, start, end time.Time, obs ports.Observability) (int, error) {
	var (
		loaded int
		errs   []error
	)
	for _, id := range seriesIDs {
		if err := ctx.Err(); err != nil {
			return loaded, err
		}
		samples, err := archive.Load(ctx, id, start, end)
		if err != nil {
			obs.LogError("archive_backfill_failed", err,
				ports.Field{Key: "archive", Value: archive.Name()},
				ports.Field{Key: "series", Value: id})
			errs = append(errs, fmt.Errorf("backfill %s: %w", id, err))
			continue
		}
		n := appendAll(store, samples, obs)
		loaded += n
		obs.LogInfo("archive_backfill_complete",
			ports.Field{Key: "archive", Value: archive.Name()},
			ports.Field{Key: "series", Value: id},
			ports.Field{Key: "samples", Value: n})
	}
	return loaded, errors.Join(errs...)
}

// ReplayJournal feeds every journaled sample back into the store. Samples of
// series that are no longer configured, or older than what a history already
// holds, are rejected by the store and counted.
func ReplayJournal(journal ports.Journal, store SampleAppender, obs ports.Observability) (int, error) {
	if journal.Stats().Entries == 0 {
		return 0, nil
	}

	var replayed int
	err := journal.Replay(1, func(_ ports.JournalEntryID, s *domain.Sample) error {
		if err := store.Append(s); err != nil {
			obs.RecordRejected(s, err)
			return nil
		}
		replayed++
		return nil
	})
	if err != nil {
		return replayed, err
	}
	if replayed > 0 {
		obs.IncCounter("wavescope_samples_appended_total", float64(replayed))
		obs.LogInfo("journal_replay_complete", ports.Field{Key: "samples", Value: replayed})
	}
	return replayed, nil
}

func appendAll(store SampleAppender, samples []*domain.Sample, obs ports.Observability) int {
	var n int
	for _, s := range samples {
		if err := store.Append(s); err != nil {
			obs.RecordRejected(s, err)
			continue
		}
		n++
	}
	if n > 0 {
		obs.IncCounter("wavescope_samples_appended_total", float64(n))
	}
	return n
}
