package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ghalamif/wavescope/internal/adapters/opcua"
	"github.com/ghalamif/wavescope/internal/app/inspector"
	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Inspector InspectorConfig     `yaml:"inspector"`
	Policy    ports.Policy        `yaml:"policy"`
	Series    []domain.SeriesInfo `yaml:"series"`
	OPCUA     opcua.Config        `yaml:"opcua"`
	Archive   ArchiveConfig       `yaml:"archive"`
	Metrics   MetricsConfig       `yaml:"metrics"`
	Journal   JournalConfig       `yaml:"journal"`
}

type InspectorConfig struct {
	SettleDelay      time.Duration `yaml:"settle_delay"`
	AnnotationPrefix string        `yaml:"annotation_prefix"`
	DefaultOffset    domain.Offset `yaml:"default_offset"`
	// Selection lists the series to inspect; the first is the primary.
	Selection []string `yaml:"selection"`
	Index     int      `yaml:"index"`
}

type ArchiveConfig struct {
	ConnString string        `yaml:"conn_string"`
	Table      string        `yaml:"table"`
	Backfill   time.Duration `yaml:"backfill"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

type JournalConfig struct {
	Dir      string `yaml:"dir"`
	Disabled bool   `yaml:"disabled"`
	// MaxBytes triggers compaction down to policy.max_history_len records
	// per series. Zero keeps the journal unbounded.
	MaxBytes int64 `yaml:"max_bytes"`
}

func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// InspectorSettings converts the inspector section for inspector.New.
func (c *Config) InspectorSettings() inspector.Config {
	return inspector.Config{
		SettleDelay:      c.Inspector.SettleDelay,
		AnnotationPrefix: c.Inspector.AnnotationPrefix,
		DefaultOffset:    c.Inspector.DefaultOffset,
	}
}

// AllSeries returns the explicitly declared series followed by the series
// fed from OPC UA nodes.
func (c *Config) AllSeries() []domain.SeriesInfo {
	out := append([]domain.SeriesInfo(nil), c.Series...)
	if c.OPCUAEnabled() {
		out = append(out, c.OPCUA.Series()...)
	}
	return out
}

// OPCUAEnabled reports whether the opcua section is in use.
func (c *Config) OPCUAEnabled() bool {
	return c.OPCUA.Endpoint != "" || len(c.OPCUA.Nodes) > 0
}

func (c *Config) applyDefaults() {
	if c.Inspector.SettleDelay == 0 {
		c.Inspector.SettleDelay = inspector.DefaultSettleDelay
	}
	if c.Inspector.AnnotationPrefix == "" {
		c.Inspector.AnnotationPrefix = inspector.DefaultAnnotationPrefix
	}
	if c.Inspector.DefaultOffset == (domain.Offset{}) {
		c.Inspector.DefaultOffset = inspector.DefaultOffset
	}
	if c.Policy.MaxHistoryLen == 0 {
		c.Policy.MaxHistoryLen = 10_000
	}
	if c.Policy.FeedBuffer == 0 {
		c.Policy.FeedBuffer = 1_024
	}
	if c.Policy.OnHistoryFull == "" {
		c.Policy.OnHistoryFull = "evict"
	}
	if c.Archive.Table == "" {
		c.Archive.Table = "samples"
	}
	if c.Archive.Backfill == 0 {
		c.Archive.Backfill = 10 * time.Minute
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
	if c.Journal.Dir == "" {
		c.Journal.Dir = "./data/journal"
	}
	if c.Journal.MaxBytes == 0 {
		c.Journal.MaxBytes = 64 << 20
	}

	if c.OPCUAEnabled() {
		c.OPCUA.ApplyDefaults()
	}
}

func (c *Config) validate() error {
	if c.OPCUAEnabled() {
		if err := c.OPCUA.Validate(); err != nil {
			return fmt.Errorf("opcua config: %w", err)
		}
	}
	if c.Inspector.SettleDelay < 0 {
		return fmt.Errorf("inspector.settle_delay must not be negative")
	}
	if c.Inspector.Index < 0 {
		return fmt.Errorf("inspector.index must not be negative")
	}
	switch c.Policy.OnHistoryFull {
	case "evict", "drop":
	default:
		return fmt.Errorf("policy.on_history_full must be evict or drop, got %q", c.Policy.OnHistoryFull)
	}
	if c.Policy.MaxHistoryLen < 0 || c.Policy.FeedBuffer < 0 {
		return fmt.Errorf("policy sizes must not be negative")
	}

	series := c.AllSeries()
	if len(series) == 0 {
		return fmt.Errorf("at least one series must be configured")
	}
	known := make(map[string]bool, len(series))
	for _, s := range series {
		if s.ID == "" {
			return fmt.Errorf("series_id is required")
		}
		if known[s.ID] {
			return fmt.Errorf("series %q is declared twice", s.ID)
		}
		known[s.ID] = true
	}
	for _, id := range c.Inspector.Selection {
		if !known[id] {
			return fmt.Errorf("inspector.selection: unknown series %q", id)
		}
	}

	if c.Archive.Backfill < 0 {
		return fmt.Errorf("archive.backfill must not be negative")
	}
	if c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required")
	}
	if c.Journal.MaxBytes < 0 {
		return fmt.Errorf("journal.max_bytes must not be negative")
	}
	if !c.Journal.Disabled && c.Journal.Dir == "" {
		return fmt.Errorf("journal.dir is required")
	}
	return nil
}
