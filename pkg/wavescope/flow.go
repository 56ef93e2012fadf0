package wavescope

import (
	"context"
	"fmt"
)

// Flow is a convenience builder that lets callers say Conf → FeedIN → ViewOUT
// without touching the underlying hexagonal wiring.
type Flow struct {
	cfg  *Config
	opts []RuntimeOption
}

// FlowOption mutates the Flow after configuration is loaded.
type FlowOption func(*Flow)

// FeedInOption configures the collector/journal/archive side of the runtime.
type FeedInOption func(*Flow)

// ViewOutOption configures the selection sinks and observability side.
type ViewOutOption func(*Flow)

// Conf loads YAML from disk, applies FlowOption values, and returns a Flow builder.
func Conf(path string, opts ...FlowOption) (*Flow, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return ConfFromConfig(cfg, opts...)
}

// ConfFromConfig bootstraps a Flow from an in-memory Config.
func ConfFromConfig(cfg *Config, opts ...FlowOption) (*Flow, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	f := &Flow{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// Config returns the underlying configuration so callers can tweak it before building a runtime.
func (f *Flow) Config() *Config {
	if f == nil {
		return nil
	}
	return f.cfg
}

// Options appends raw RuntimeOption values to the builder for advanced scenarios.
func (f *Flow) Options(opts ...RuntimeOption) *Flow {
	if f == nil {
		return nil
	}
	f.appendOptions(opts...)
	return f
}

// FeedIN records feed-side overrides (collector, journal, archive, observability).
func (f *Flow) FeedIN(opts ...FeedInOption) *Flow {
	if f == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// ViewOUT records view-side overrides and builds a Runtime ready to run.
func (f *Flow) ViewOUT(opts ...ViewOutOption) (*Runtime, error) {
	if f == nil {
		return nil, fmt.Errorf("flow is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return NewRuntime(f.cfg, f.opts...)
}

// Run is a shortcut for ViewOUT + runtime.Run.
func (f *Flow) Run(ctx context.Context, opts ...ViewOutOption) error {
	rt, err := f.ViewOUT(opts...)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}

// WithFlowOptions appends RuntimeOption values during Conf.
func WithFlowOptions(opts ...RuntimeOption) FlowOption {
	return func(f *Flow) {
		if f != nil {
			f.appendOptions(opts...)
		}
	}
}

// FeedInCollector injects a custom collector, such as a Publisher.
func FeedInCollector(col Collector) FeedInOption {
	return func(f *Flow) {
		if f != nil && col != nil {
			f.appendOptions(WithCollector(col))
		}
	}
}

// FeedInJournal lets callers bring their own journal implementation.
func FeedInJournal(j Journal) FeedInOption {
	return func(f *Flow) {
		if f != nil && j != nil {
			f.appendOptions(WithJournal(j))
		}
	}
}

// FeedInArchive replaces the TimescaleDB archive used for backfill.
func FeedInArchive(a Archive) FeedInOption {
	return func(f *Flow) {
		if f != nil && a != nil {
			f.appendOptions(WithArchive(a))
		}
	}
}

// FeedInObservability overrides the default Prometheus-based observability stack.
func FeedInObservability(obs Observability) FeedInOption {
	return func(f *Flow) {
		if f != nil && obs != nil {
			f.appendOptions(WithObservability(obs))
		}
	}
}

// ViewOutSink registers a SelectionSink.
func ViewOutSink(s SelectionSink) ViewOutOption {
	return func(f *Flow) {
		if f != nil && s != nil {
			f.appendOptions(WithSelectionSink(s))
		}
	}
}

// ViewOutCallback installs a sink built from a simple callback function.
func ViewOutCallback(name string, fn SelectionHandler) ViewOutOption {
	return func(f *Flow) {
		if f != nil && fn != nil {
			f.appendOptions(WithSelectionSink(NewCallbackSink(name, fn)))
		}
	}
}

// ViewOutObservability replaces the default observability backend.
func ViewOutObservability(obs Observability) ViewOutOption {
	return func(f *Flow) {
		if f != nil && obs != nil {
			f.appendOptions(WithObservability(obs))
		}
	}
}

func (f *Flow) appendOptions(opts ...RuntimeOption) {
	for _, opt := range opts {
		if opt != nil {
			f.opts = append(f.opts, opt)
		}
	}
}
