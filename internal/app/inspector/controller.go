package inspector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
)

var ErrAlreadyRunning = errors.New("inspector: already running")

const timestampLayout = "2006-01-02 15:04:05.000000000"

type Config struct {
	SettleDelay      time.Duration
	AnnotationPrefix string
	DefaultOffset    domain.Offset
	EventBuffer      int
	CommandBuffer    int
}

func (c *Config) applyDefaults() {
	if c.SettleDelay <= 0 {
		c.SettleDelay = DefaultSettleDelay
	}
	if c.AnnotationPrefix == "" {
		c.AnnotationPrefix = DefaultAnnotationPrefix
	}
	if c.DefaultOffset == (domain.Offset{}) {
		c.DefaultOffset = DefaultOffset
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = 64
	}
	if c.CommandBuffer <= 0 {
		c.CommandBuffer = 64
	}
}

// Controller owns the sample selection of one inspector. Every state change
// runs on the goroutine started by Run, so selection and mirror state need
// no locking; other goroutines talk to it through posted commands.
type Controller struct {
	cfg      Config
	model    ports.Model
	obs      ports.Observability
	mirror   *Mirror
	debounce *Debouncer
	sinks    []ports.SelectionSink

	cmds      chan func()
	done      chan struct{}
	running   atomic.Bool
	doneOnce  sync.Once
	hasSeries atomic.Bool

	fields atomic.Pointer[ports.DisplayFields]
	last   atomic.Pointer[ports.SelectionUpdate]

	// Owned by the Run goroutine.
	selected bool
	enabled  bool
	items    []ports.Series
	index    int
}

func New(model ports.Model, cfg Config, obs ports.Observability, sinks ...ports.SelectionSink) *Controller {
	cfg.applyDefaults()
	c := &Controller{
		cfg:    cfg,
		model:  model,
		obs:    obs,
		mirror: NewMirror(model, cfg.AnnotationPrefix, cfg.DefaultOffset),
		sinks:  sinks,
		cmds:   make(chan func(), cfg.CommandBuffer),
		done:   make(chan struct{}),
	}
	c.debounce = NewDebouncer(cfg.SettleDelay, func() { c.post(c.onSettle) })
	return c
}

// Run processes commands and model events until ctx is cancelled. On exit the
// pending settle is dropped and the shadow annotations are removed.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	events, unsubscribe := c.model.Subscribe(c.cfg.EventBuffer)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case fn := <-c.cmds:
			fn()
		case ev, ok := <-events:
			if !ok {
				c.shutdown()
				return nil
			}
			c.handleEvent(ev)
		}
	}
}

func (c *Controller) shutdown() {
	c.debounce.Stop()
	c.mirror.Clear()
	c.doneOnce.Do(func() { close(c.done) })
}

// SetSeriesSelection selects series by id; the first one is the primary.
// Unknown ids are ignored. An empty list disables the selection.
func (c *Controller) SetSeriesSelection(ids []string) {
	c.hasSeries.Store(true)
	ids = append([]string(nil), ids...)
	c.post(func() { c.selectSeries(ids) })
}

// SetIndex moves the selection to index in the primary history. Calling it
// before SetSeriesSelection is a programming error and panics.
func (c *Controller) SetIndex(index int) {
	if !c.hasSeries.Load() {
		panic("inspector: SetIndex called before SetSeriesSelection")
	}
	c.post(func() { c.moveTo(index) })
}

// DisplayFields returns the text last derived from the selected samples.
func (c *Controller) DisplayFields() ports.DisplayFields {
	if f := c.fields.Load(); f != nil {
		return *f
	}
	return ports.DisplayFields{}
}

// Current returns the last selection update.
func (c *Controller) Current() ports.SelectionUpdate {
	if u := c.last.Load(); u != nil {
		return *u
	}
	return ports.SelectionUpdate{}
}

// Sync waits until every command posted before it has been handled.
func (c *Controller) Sync(ctx context.Context) error {
	ack := make(chan struct{})
	select {
	case c.cmds <- func() { close(ack) }:
	case <-c.done:
		return fmt.Errorf("inspector: stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ack:
		return nil
	case <-c.done:
		return fmt.Errorf("inspector: stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AnnotationOrigin is the origin token stamped on this inspector's writes.
func (c *Controller) AnnotationOrigin() string { return c.mirror.Origin() }

func (c *Controller) post(fn func()) {
	select {
	case c.cmds <- fn:
	case <-c.done:
	}
}

func (c *Controller) handleEvent(ev domain.ModelEvent) {
	switch ev.Kind {
	case domain.SeriesAdded, domain.SeriesRemoved, domain.SeriesLookChanged:
		if c.selected {
			c.selectSeries(c.selectedIDs())
		}
	case domain.AnnotationsChanged:
		c.onExternalAnnotationChanged(ev)
	case domain.TimeRangeChanged:
		if c.enabled {
			c.moveTo(c.index)
		}
	}
}

func (c *Controller) onExternalAnnotationChanged(ev domain.ModelEvent) {
	if c.mirror.IsEcho(ev) {
		c.obs.IncCounter("wavescope_echo_suppressed_total", 1)
		return
	}
	c.debounce.Signal()
}

func (c *Controller) selectSeries(ids []string) {
	c.selected = true
	c.mirror.Clear()

	items := make([]ports.Series, 0, len(ids))
	for _, id := range ids {
		if s, ok := c.model.Lookup(id); ok {
			items = append(items, s)
		}
	}
	c.items = items

	if len(items) == 0 {
		c.enabled = false
		c.clearInfo()
		c.notify(ports.SelectionUpdate{})
		return
	}
	c.enabled = true
	c.moveTo(c.index)
}

func (c *Controller) moveTo(index int) {
	if !c.selected {
		panic("inspector: moveTo called before selectSeries")
	}
	if !c.enabled {
		return
	}
	start := time.Now()

	positions := make(map[string]int)
	for i, s := range c.model.Series() {
		positions[s.Info().ID] = i
	}
	for _, item := range c.items {
		if _, ok := positions[item.Info().ID]; !ok {
			c.obs.LogInfo("selection_stale", ports.Field{Key: "series", Value: item.Info().ID})
			c.selectSeries(c.selectedIDs())
			return
		}
	}

	var (
		primary *domain.Sample
		length  int
	)
	err := c.items[0].History().WithLock(func(v ports.HistoryView) error {
		length = v.Len()
		if length == 0 {
			return nil
		}
		index = clamp(index, 0, length-1)
		s, err := v.Get(index)
		primary = s
		return err
	})
	if err != nil {
		c.obs.LogError("selection_read_failed", err, ports.Field{Key: "index", Value: index})
		c.clearInfo()
		return
	}
	if length == 0 {
		c.index = 0
		c.clearInfo()
		c.notify(ports.SelectionUpdate{})
		return
	}
	c.index = index

	resolved := make([]*domain.Sample, len(c.items))
	resolved[0] = primary
	if primary.HasValue() {
		for i, item := range c.items[1:] {
			_ = item.History().WithLock(func(v ports.HistoryView) error {
				resolved[i+1] = ResolveSecondary(primary.Timestamp, v)
				return nil
			})
		}
	}

	update := ports.SelectionUpdate{
		Enabled: true,
		Index:   index,
		Max:     length,
		Primary: primary.Timestamp,
		Samples: resolved,
	}

	if !primary.HasValue() {
		c.clearInfo()
		c.notify(update)
		return
	}

	entries := make([]ShadowEntry, 0, len(c.items))
	for i, item := range c.items {
		if !resolved[i].HasValue() {
			continue
		}
		entries = append(entries, ShadowEntry{
			ItemIndex: positions[item.Info().ID],
			Series:    item.Info(),
			Sample:    resolved[i],
		})
	}
	c.mirror.Publish(entries)

	update.Fields = formatFields(resolved)
	c.fields.Store(&update.Fields)
	c.obs.IncCounter("wavescope_index_moves_total", 1)
	c.obs.ObserveLatency("wavescope_publish_latency_seconds", time.Since(start).Seconds())
	c.notify(update)
}

func (c *Controller) onSettle() {
	if !c.enabled || len(c.items) == 0 {
		return
	}
	shadow, external, ok := c.mirror.FindExternal(c.model.Annotations())
	if !ok || external.Time.Equal(shadow.Time) {
		return
	}

	var (
		idx   int
		found bool
	)
	_ = c.items[0].History().WithLock(func(v ports.HistoryView) error {
		idx, found = FindClosestIndex(v, external.Time)
		return nil
	})
	if !found {
		return
	}
	c.obs.IncCounter("wavescope_settles_total", 1)
	c.obs.LogInfo("annotation_settled",
		ports.Field{Key: "series", Value: c.items[0].Info().ID},
		ports.Field{Key: "index", Value: idx})
	c.moveTo(idx)
}

func (c *Controller) clearInfo() {
	empty := ports.DisplayFields{}
	c.fields.Store(&empty)
	c.mirror.Clear()
}

func (c *Controller) notify(u ports.SelectionUpdate) {
	c.last.Store(&u)
	for _, s := range c.sinks {
		s.Notify(u)
	}
}

func (c *Controller) selectedIDs() []string {
	ids := make([]string, 0, len(c.items))
	for _, s := range c.items {
		ids = append(ids, s.Info().ID)
	}
	return ids
}

func formatFields(samples []*domain.Sample) ports.DisplayFields {
	var stamps, statuses []string
	for _, s := range samples {
		if !s.HasValue() {
			continue
		}
		stamps = append(stamps, s.Timestamp.Format(timestampLayout))
		statuses = append(statuses, s.Status.Severity+" / "+s.Status.Message)
	}
	return ports.DisplayFields{
		TimestampText: strings.Join(stamps, "; "),
		StatusText:    strings.Join(statuses, "; "),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
