package wavescope

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghalamif/wavescope/internal/adapters/archive"
	"github.com/ghalamif/wavescope/internal/adapters/history"
	"github.com/ghalamif/wavescope/internal/adapters/journal"
	"github.com/ghalamif/wavescope/internal/adapters/model"
	"github.com/ghalamif/wavescope/internal/adapters/observability"
	"github.com/ghalamif/wavescope/internal/adapters/opcua"
	"github.com/ghalamif/wavescope/internal/app/inspector"
	"github.com/ghalamif/wavescope/internal/app/pipeline"
	"github.com/ghalamif/wavescope/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	collector     Collector
	observability Observability
	archive       Archive
	journal       Journal
	sinks         []SelectionSink
	noMetrics     bool
}

// WithCollector injects a custom collector (a Publisher, simulators, other protocols).
func WithCollector(col Collector) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.collector = col
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithArchive replaces the TimescaleDB archive used for backfill.
func WithArchive(a Archive) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.archive = a
	}
}

// WithJournal lets callers bring their own journal implementation.
func WithJournal(j Journal) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.journal = j
	}
}

// WithSelectionSink registers a receiver for selection changes.
func WithSelectionSink(s SelectionSink) RuntimeOption {
	return func(o *runtimeOverrides) {
		if s != nil {
			o.sinks = append(o.sinks, s)
		}
	}
}

// WithoutMetricsServer skips the /metrics and /healthz HTTP server.
func WithoutMetricsServer() RuntimeOption {
	return func(o *runtimeOverrides) {
		o.noMetrics = true
	}
}

// Runtime wires collector → journal → histories → inspector and exposes
// simple lifecycle hooks for embedding WaveScope inside any Go service.
type Runtime struct {
	cfg       *Config
	obs       ports.Observability
	store     *history.Store
	model     *model.Model
	inspector *inspector.Controller
	collector ports.Collector
	journal   ports.Journal
	archive   ports.Archive
	db        *sql.DB
	noMetrics bool

	mu          sync.Mutex
	started     bool
	cancel      context.CancelFunc
	feedDone    <-chan struct{}
	inspectDone chan error
	metricsSrv  *http.Server
	gaugeStopCh chan struct{}
	gaugeWG     sync.WaitGroup
}

// NewRuntime bootstraps the default adapters (OPC UA collector, file journal,
// TimescaleDB archive, Prometheus observability) and registers every configured
// series. Options override any dependency. Without an OPC UA section or a
// custom collector the runtime only shows archived and journaled samples.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs(nil, slog.Default())
	}

	store := history.NewStore(cfg.Policy)
	mdl := model.New(store)
	for _, info := range cfg.AllSeries() {
		if _, err := mdl.AddSeries(info); err != nil {
			return nil, err
		}
	}

	rt := &Runtime{
		cfg:       cfg,
		obs:       obs,
		store:     store,
		model:     mdl,
		noMetrics: overrides.noMetrics,
	}

	var err error
	rt.journal = overrides.journal
	if rt.journal == nil && !cfg.Journal.Disabled {
		rt.journal, err = journal.NewFileJournal(cfg.Journal.Dir,
			journal.WithMaxBytes(cfg.Journal.MaxBytes),
			journal.WithKeepPerSeries(cfg.Policy.MaxHistoryLen),
		)
		if err != nil {
			return nil, err
		}
	}

	rt.archive = overrides.archive
	if rt.archive == nil && cfg.Archive.ConnString != "" {
		rt.db, err = sql.Open("postgres", cfg.Archive.ConnString)
		if err != nil {
			rt.closeStores()
			return nil, err
		}
		rt.archive = archive.NewTimescaleArchive(rt.db, cfg.Archive.Table)
	}

	rt.collector = overrides.collector
	if rt.collector == nil && cfg.OPCUAEnabled() {
		rt.collector, err = opcua.NewCollector(cfg.OPCUA, slog.Default())
		if err != nil {
			rt.closeStores()
			return nil, err
		}
	}

	rt.inspector = inspector.New(mdl, cfg.InspectorSettings(), obs, overrides.sinks...)
	return rt, nil
}

// Model returns the series and annotation model the inspector works on.
func (r *Runtime) Model() *SeriesModel { return r.model }

// Inspector returns the selection controller.
func (r *Runtime) Inspector() *Inspector { return r.inspector }

// Start backfills and replays history, then starts the inspector, the live
// feed and the observability stack. It returns once everything is running.
func (r *Runtime) Start(ctx context.Context) error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("runtime already started")
	}

	r.loadHistory(ctx)

	runCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.inspectDone = make(chan error, 1)
	go func() { r.inspectDone <- r.inspector.Run(runCtx) }()

	if r.collector != nil {
		done, err := pipeline.RunFeedPipeline(runCtx, r.collector, r.journal, r.store, r.cfg.Policy, r.obs)
		if err != nil {
			cancel()
			<-r.inspectDone
			return err
		}
		r.feedDone = done
	} else {
		r.obs.LogInfo("no_live_feed")
	}

	if sel := r.cfg.Inspector.Selection; len(sel) > 0 {
		r.inspector.SetSeriesSelection(sel)
		r.inspector.SetIndex(r.cfg.Inspector.Index)
	}

	r.startMetrics()
	r.started = true
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled.
// Upon cancellation it attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops the collector, the inspector (removing its annotations), the
// metrics server, the journal and the DB connection.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error

	if r.gaugeStopCh != nil {
		close(r.gaugeStopCh)
		r.gaugeWG.Wait()
		r.gaugeStopCh = nil
	}

	if r.metricsSrv != nil {
		if err := r.metricsSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
		r.metricsSrv = nil
	}

	if r.collector != nil && r.started {
		if err := r.collector.Stop(); err != nil {
			errs = append(errs, err)
		}
	}

	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
		if r.feedDone != nil {
			<-r.feedDone
		}
		select {
		case err := <-r.inspectDone:
			if err != nil {
				errs = append(errs, err)
			}
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
	}
	r.started = false

	if err := r.closeStores(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Runtime) loadHistory(ctx context.Context) {
	if r.archive != nil && r.cfg.Archive.Backfill > 0 {
		end := time.Now()
		ids := make([]string, 0, len(r.model.Series()))
		for _, s := range r.model.Series() {
			ids = append(ids, s.Info().ID)
		}
		if _, err := pipeline.Backfill(ctx, r.archive, r.store, ids, end.Add(-r.cfg.Archive.Backfill), end, r.obs); err != nil {
			r.obs.LogError("backfill_incomplete", err)
		}
	}
	if r.journal != nil {
		if _, err := pipeline.ReplayJournal(r.journal, r.store, r.obs); err != nil {
			r.obs.LogError("journal_replay_failed", err)
		}
	}
}

func (r *Runtime) closeStores() error {
	var errs []error
	if r.journal != nil {
		if err := r.journal.Close(); err != nil {
			errs = append(errs, err)
		}
		r.journal = nil
	}
	if r.db != nil {
		if err := r.db.Close(); err != nil {
			errs = append(errs, err)
		}
		r.db = nil
	}
	return errors.Join(errs...)
}

func (r *Runtime) startMetrics() {
	if !r.noMetrics {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		srv := &http.Server{
			Addr:    r.cfg.Metrics.Addr,
			Handler: mux,
		}
		r.metricsSrv = srv

		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.obs.LogError("metrics_server_exited", err)
			}
		}()
	}

	r.gaugeStopCh = make(chan struct{})
	r.gaugeWG.Add(1)
	go r.recordGauges(r.gaugeStopCh, time.Second)
}

func (r *Runtime) recordGauges(stop <-chan struct{}, interval time.Duration) {
	defer r.gaugeWG.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.sampleGauges()
		}
	}
}

func (r *Runtime) sampleGauges() {
	var total int
	for _, n := range r.store.Sizes() {
		total += n
	}
	r.obs.SetGauge("wavescope_history_samples", float64(total))
	if j := r.journal; j != nil {
		r.obs.SetGauge("wavescope_journal_size_bytes", float64(j.Stats().SizeBytes))
	}
}
