package domain

// EventKind enumerates model change notifications.
type EventKind int

const (
	SeriesAdded EventKind = iota + 1
	SeriesRemoved
	SeriesLookChanged
	AnnotationsChanged
	TimeRangeChanged
)

func (k EventKind) String() string {
	switch k {
	case SeriesAdded:
		return "series_added"
	case SeriesRemoved:
		return "series_removed"
	case SeriesLookChanged:
		return "series_look_changed"
	case AnnotationsChanged:
		return "annotations_changed"
	case TimeRangeChanged:
		return "time_range_changed"
	default:
		return "unknown"
	}
}

// ModelEvent is delivered to model subscribers. SeriesID is set for series
// events; Origin is set for annotation changes to the token of the writer.
type ModelEvent struct {
	Kind     EventKind
	SeriesID string
	Origin   string
}
