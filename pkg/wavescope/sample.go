package wavescope

import (
	"time"

	"github.com/ghalamif/wavescope/internal/domain"
)

// Sample mirrors the internal domain.Sample but is safe for external callers.
type Sample struct {
	SeriesID  string
	Timestamp time.Time
	Value     []float64
	Position  float64
	Severity  string
	Message   string
}

func (s Sample) toDomain() *domain.Sample {
	return &domain.Sample{
		SeriesID:  s.SeriesID,
		Timestamp: s.Timestamp,
		Value:     copyValue(s.Value),
		Position:  s.Position,
		Status:    domain.Status{Severity: s.Severity, Message: s.Message},
	}
}

func sampleFromDomain(s *domain.Sample) Sample {
	if s == nil {
		return Sample{}
	}
	return Sample{
		SeriesID:  s.SeriesID,
		Timestamp: s.Timestamp,
		Value:     copyValue(s.Value),
		Position:  s.Position,
		Severity:  s.Status.Severity,
		Message:   s.Status.Message,
	}
}

func copyValue(src []float64) []float64 {
	if src == nil {
		return nil
	}
	return append([]float64{}, src...)
}
