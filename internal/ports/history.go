package ports

import "github.com/ghalamif/wavescope/internal/domain"

// HistoryView is a consistent snapshot of one series history. It is only
// valid inside the SampleHistory.WithLock callback that produced it.
type HistoryView interface {
	Len() int
	Get(i int) (*domain.Sample, error)
}

// SampleHistory is the lock-guarded, time-ordered sample sequence of a series.
type SampleHistory interface {
	WithLock(fn func(v HistoryView) error) error
	Append(s *domain.Sample) error
}
