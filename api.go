package wavescope

import (
	base "github.com/ghalamif/wavescope/pkg/wavescope"
)

// Re-exported errors for convenience.
var (
	ErrPublisherClosed = base.ErrPublisherClosed
	ErrFeedFull        = base.ErrFeedFull
	ErrInvalidSample   = base.ErrInvalidSample
)

// Type aliases so consumers can import github.com/ghalamif/wavescope directly.
type (
	Config           = base.Config
	InspectorConfig  = base.InspectorConfig
	Policy           = base.Policy
	SeriesInfo       = base.SeriesInfo
	Offset           = base.Offset
	OPCUAConfig      = base.OPCUAConfig
	OPCUANodeConfig  = base.OPCUANodeConfig
	ArchiveConfig    = base.ArchiveConfig
	MetricsConfig    = base.MetricsConfig
	JournalConfig    = base.JournalConfig
	Flow             = base.Flow
	FlowOption       = base.FlowOption
	FeedInOption     = base.FeedInOption
	ViewOutOption    = base.ViewOutOption
	Runtime          = base.Runtime
	RuntimeOption    = base.RuntimeOption
	Sample           = base.Sample
	PipelineSample   = base.PipelineSample
	Status           = base.Status
	Annotation       = base.Annotation
	Selection        = base.Selection
	SelectionHandler = base.SelectionHandler
	SelectionSink    = base.SelectionSink
	SelectionUpdate  = base.SelectionUpdate
	DisplayFields    = base.DisplayFields
	Collector        = base.Collector
	Observability    = base.Observability
	Field            = base.Field
	Journal          = base.Journal
	JournalStats     = base.JournalStats
	JournalEntryID   = base.JournalEntryID
	Archive          = base.Archive
	Publisher        = base.Publisher
	SeriesModel      = base.SeriesModel
	Inspector        = base.Inspector
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

func ParseConfig(raw []byte) (*Config, error) {
	return base.ParseConfig(raw)
}

// Flow builder helpers.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	return base.Conf(path, opts...)
}

func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	return base.ConfFromConfig(cfg, opts...)
}

func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return base.WithFlowOptions(opts...)
}

func FeedInCollector(col Collector) FeedInOption {
	return base.FeedInCollector(col)
}

func FeedInJournal(j Journal) FeedInOption {
	return base.FeedInJournal(j)
}

func FeedInArchive(a Archive) FeedInOption {
	return base.FeedInArchive(a)
}

func FeedInObservability(obs Observability) FeedInOption {
	return base.FeedInObservability(obs)
}

func ViewOutSink(s SelectionSink) ViewOutOption {
	return base.ViewOutSink(s)
}

func ViewOutCallback(name string, fn SelectionHandler) ViewOutOption {
	return base.ViewOutCallback(name, fn)
}

func ViewOutObservability(obs Observability) ViewOutOption {
	return base.ViewOutObservability(obs)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithCollector(col Collector) RuntimeOption {
	return base.WithCollector(col)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithArchive(a Archive) RuntimeOption {
	return base.WithArchive(a)
}

func WithJournal(j Journal) RuntimeOption {
	return base.WithJournal(j)
}

func WithSelectionSink(s SelectionSink) RuntimeOption {
	return base.WithSelectionSink(s)
}

func WithoutMetricsServer() RuntimeOption {
	return base.WithoutMetricsServer()
}

// View sinks.
func NewCallbackSink(name string, fn SelectionHandler) SelectionSink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (SelectionSink, <-chan Selection, func()) {
	return base.NewChannelSink(name, buffer)
}

// Push publisher.
func NewPublisher(buffer int) *Publisher {
	return base.NewPublisher(buffer)
}
