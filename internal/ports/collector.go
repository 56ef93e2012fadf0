package ports

import "github.com/ghalamif/wavescope/internal/domain"

// Collector streams live samples from a data source into the feed pipeline.
type Collector interface {
	Start(out chan<- *domain.Sample) error
	Stop() error
}
