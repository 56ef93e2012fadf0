package inspector

import (
	"sort"
	"time"

	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
)

// FindClosestIndex returns the index of the last sample whose timestamp is
// not after t, or 0 when every sample is later than t. The view must be
// time-ordered; ok is false for an empty history.
func FindClosestIndex(v ports.HistoryView, t time.Time) (idx int, ok bool) {
	n := v.Len()
	if n == 0 {
		return 0, false
	}
	after := sort.Search(n, func(i int) bool {
		s, err := v.Get(i)
		return err != nil || s.Timestamp.After(t)
	})
	if after == 0 {
		return 0, true
	}
	return after - 1, true
}

// ResolveSecondary picks the sample of a secondary series shown alongside a
// primary sample taken at t. Nil when the history is empty.
func ResolveSecondary(t time.Time, v ports.HistoryView) *domain.Sample {
	idx, ok := FindClosestIndex(v, t)
	if !ok {
		return nil
	}
	s, err := v.Get(idx)
	if err != nil {
		return nil
	}
	return s
}
