package ports

import (
	"time"

	"github.com/ghalamif/wavescope/internal/domain"
)

// DisplayFields is the read-only text shown next to the index slider.
type DisplayFields struct {
	TimestampText string
	StatusText    string
}

// SelectionUpdate is emitted after every index change or selection reset.
type SelectionUpdate struct {
	Enabled bool
	Index   int
	Max     int
	Primary time.Time
	Samples []*domain.Sample
	Fields  DisplayFields
}

// SelectionSink receives selection updates, typically to refresh a slider and
// plot. Notify must not block for long; it runs on the inspector goroutine.
type SelectionSink interface {
	Notify(u SelectionUpdate)
	Name() string
}
