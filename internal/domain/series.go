package domain

// SeriesInfo describes how a series is presented. It is opaque to the
// inspector except for DisplayName, which feeds annotation labels.
type SeriesInfo struct {
	ID          string `yaml:"series_id"`
	DisplayName string `yaml:"display_name"`
	Units       string `yaml:"units"`
	Color       string `yaml:"color"`
}

// Name returns the display name, falling back to the id.
func (s SeriesInfo) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.ID
}
