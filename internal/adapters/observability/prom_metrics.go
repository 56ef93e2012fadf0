package observability

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
)

const (
	SamplesAppended  = "wavescope_samples_appended_total"
	SamplesRejected  = "wavescope_samples_rejected_total"
	IndexMoves       = "wavescope_index_moves_total"
	Settles          = "wavescope_settles_total"
	EchoSuppressed   = "wavescope_echo_suppressed_total"
	JournalSizeBytes = "wavescope_journal_size_bytes"
	HistorySamples   = "wavescope_history_samples"
	PublishLatency   = "wavescope_publish_latency_seconds"
)

type PromObs struct {
	logger   *slog.Logger
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers the inspector metrics on reg (the default registerer
// when nil) and logs through logger (slog.Default when nil).
func NewPromObs(reg prometheus.Registerer, logger *slog.Logger) *PromObs {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = slog.Default()
	}

	appended := prometheus.NewCounter(prometheus.CounterOpts{
		Name: SamplesAppended,
		Help: "Samples appended to series histories.",
	})
	rejected := prometheus.NewCounter(prometheus.CounterOpts{
		Name: SamplesRejected,
		Help: "Samples rejected by the feed (out of order, history full, unknown series).",
	})
	moves := prometheus.NewCounter(prometheus.CounterOpts{
		Name: IndexMoves,
		Help: "Selected sample index changes.",
	})
	settles := prometheus.NewCounter(prometheus.CounterOpts{
		Name: Settles,
		Help: "Debounced annotation moves reconciled into the selected index.",
	})
	echoes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: EchoSuppressed,
		Help: "Annotation change notifications ignored because the inspector caused them.",
	})
	journalGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: JournalSizeBytes,
		Help: "Size of the feed journal on disk.",
	})
	historyGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: HistorySamples,
		Help: "Samples currently held across all series histories.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    PublishLatency,
		Help:    "Time to resolve a selection and publish its annotations.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	reg.MustRegister(appended, rejected, moves, settles, echoes, journalGauge, historyGauge, latency)

	return &PromObs{
		logger: logger,
		counters: map[string]prometheus.Counter{
			SamplesAppended: appended,
			SamplesRejected: rejected,
			IndexMoves:      moves,
			Settles:         settles,
			EchoSuppressed:  echoes,
		},
		gauges: map[string]prometheus.Gauge{
			JournalSizeBytes: journalGauge,
			HistorySamples:   historyGauge,
		},
		histos: map[string]prometheus.Observer{
			PublishLatency: latency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Info(msg, attrs(fields)...)
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		p.logger.Error(msg, append(attrs(fields), slog.Any("err", err))...)
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		p.logger.Error(msg, append(attrs(fields), slog.Bool("critical", true), slog.Any("err", err))...)
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordRejected(s *domain.Sample, err error) {
	p.IncCounter(SamplesRejected, 1)
	if err != nil && s != nil {
		p.logger.Warn("sample_rejected", slog.String("series", s.SeriesID), slog.Time("ts", s.Timestamp), slog.Any("err", err))
	}
}

func attrs(fields []ports.Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}

var _ ports.Observability = (*PromObs)(nil)
