package ports

import (
	"time"

	"github.com/ghalamif/wavescope/internal/domain"
)

// Series is a handle to one series of the model.
type Series interface {
	Info() domain.SeriesInfo
	History() SampleHistory
}

// Model is the shared data browser model the inspector reads from.
type Model interface {
	Series() []Series
	Lookup(id string) (Series, bool)

	Annotations() []domain.Annotation
	// ReplaceAnnotations swaps the whole annotation list and notifies every
	// subscriber with an AnnotationsChanged event stamped with origin.
	ReplaceAnnotations(origin string, list []domain.Annotation)

	TimeRange() (start, end time.Time)

	// Subscribe returns a channel of model events and a cancel function.
	Subscribe(buffer int) (<-chan domain.ModelEvent, func())
}
