package domain

import "time"

// Offset is the visual placement delta of an annotation label relative to its
// anchor point, in screen pixels.
type Offset struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Annotation is an entry of the shared, externally visible annotation list.
// Internal annotations are produced by tools such as the waveform inspector
// rather than typed in by a user.
type Annotation struct {
	ID        string
	Internal  bool
	ItemIndex int
	Time      time.Time
	Value     float64
	Offset    Offset
	Text      string
}
