package wavescope

import (
	"github.com/ghalamif/wavescope/internal/adapters/opcua"
	"github.com/ghalamif/wavescope/internal/app/config"
	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// InspectorConfig holds the settle delay, label prefix and initial selection.
	InspectorConfig = config.InspectorConfig
	// Policy bounds histories and the feed buffer.
	Policy = ports.Policy
	// SeriesInfo declares a series and how it is presented.
	SeriesInfo = domain.SeriesInfo
	// Offset is an annotation label placement delta.
	Offset = domain.Offset
	// OPCUAConfig holds connection + node details.
	OPCUAConfig = opcua.Config
	// OPCUANodeConfig maps a monitored node to a series.
	OPCUANodeConfig = opcua.NodeConfig
	// ArchiveConfig configures TimescaleDB backfill.
	ArchiveConfig = config.ArchiveConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// JournalConfig configures the on-disk feed journal.
	JournalConfig = config.JournalConfig
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseConfig reads YAML from memory, with the same defaults and checks as LoadConfig.
func ParseConfig(raw []byte) (*Config, error) {
	return config.Parse(raw)
}
