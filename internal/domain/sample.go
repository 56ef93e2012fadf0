package domain

import "time"

// Sample is one immutable snapshot of a series: a waveform (or a scalar, stored
// as a one-element waveform) plus the metadata the inspector displays.
type Sample struct {
	SeriesID  string    `json:"series_id"`
	Timestamp time.Time `json:"ts"`
	Value     []float64 `json:"value"`
	Position  float64   `json:"position"`
	Status    Status    `json:"status"`
}

// Status is the opaque alarm severity/message pair carried by a sample.
type Status struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// HasValue reports whether the sample carries data. A nil Value means the
// source had no value at that time (disconnected, archive gap).
func (s *Sample) HasValue() bool {
	return s != nil && s.Value != nil
}
