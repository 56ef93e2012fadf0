package ports

import (
	"context"
	"time"

	"github.com/ghalamif/wavescope/internal/domain"
)

// Archive serves historic samples used to backfill a series on startup.
type Archive interface {
	Load(ctx context.Context, seriesID string, start, end time.Time) ([]*domain.Sample, error)
	Name() string
}
