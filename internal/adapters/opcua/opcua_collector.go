package opcua

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"
)

// Config captures the runtime details required to open an OPC UA session.
type Config struct {
	Endpoint         string        `yaml:"endpoint"`
	Username         string        `yaml:"username"`
	Password         string        `yaml:"password"`
	SecurityMode     string        `yaml:"security_mode"`
	SecurityPolicy   string        `yaml:"security_policy"`
	ApplicationName  string        `yaml:"application_name"`
	PublishInterval  time.Duration `yaml:"publish_interval"`
	SamplingInterval time.Duration `yaml:"sampling_interval"`
	Nodes            []NodeConfig  `yaml:"nodes"`
}

// NodeConfig maps a monitored node to the series its values feed.
type NodeConfig struct {
	domain.SeriesInfo `yaml:",inline"`

	NodeID string `yaml:"node_id"`
}

func (c *Config) ApplyDefaults() {
	if c.SecurityMode == "" {
		c.SecurityMode = "None"
	}
	if c.SecurityPolicy == "" {
		c.SecurityPolicy = "None"
	}
	if c.ApplicationName == "" {
		c.ApplicationName = "WaveScope"
	}
	if c.PublishInterval <= 0 {
		c.PublishInterval = 250 * time.Millisecond
	}
	if c.SamplingInterval < 0 {
		c.SamplingInterval = 0
	}
	for i := range c.Nodes {
		if c.Nodes[i].ID == "" {
			c.Nodes[i].ID = c.Nodes[i].NodeID
		}
	}
}

func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return errors.New("endpoint is required")
	}
	if len(c.Nodes) == 0 {
		return errors.New("at least one node must be configured")
	}
	seen := make(map[string]bool, len(c.Nodes))
	for _, n := range c.Nodes {
		if n.NodeID == "" {
			return errors.New("node_id is required")
		}
		if seen[n.ID] {
			return fmt.Errorf("series %q is fed by more than one node", n.ID)
		}
		seen[n.ID] = true
	}
	return nil
}

// Series lists the series described by the configured nodes.
func (c *Config) Series() []domain.SeriesInfo {
	out := make([]domain.SeriesInfo, 0, len(c.Nodes))
	for _, n := range c.Nodes {
		out = append(out, n.SeriesInfo)
	}
	return out
}

// Collector subscribes to waveform (array) or scalar nodes and turns each
// data change into a Sample.
type Collector struct {
	cfg       Config
	logger    *slog.Logger
	client    *opcua.Client
	sub       *opcua.Subscription
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	handleMap map[uint32]NodeConfig
	mu        sync.Mutex
	started   bool
}

func NewCollector(cfg Config, logger *slog.Logger) (*Collector, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		cfg:    cfg,
		logger: logger.With("component", "opcua"),
	}, nil
}

func (c *Collector) Start(out chan<- *domain.Sample) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("opcua collector already started")
	}
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	client, err := opcua.NewClient(c.cfg.Endpoint, c.buildClientOptions()...)
	if err != nil {
		cancel()
		return fmt.Errorf("opcua new client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		cancel()
		return fmt.Errorf("opcua connect: %w", err)
	}

	notifyCh := make(chan *opcua.PublishNotificationData, len(c.cfg.Nodes)*4)
	sub, err := client.Subscribe(ctx, &opcua.SubscriptionParameters{
		Interval: c.cfg.PublishInterval,
	}, notifyCh)
	if err != nil {
		cancel()
		_ = client.Close(ctx)
		return fmt.Errorf("opcua subscribe: %w", err)
	}

	handleMap := make(map[uint32]NodeConfig, len(c.cfg.Nodes))
	for i, node := range c.cfg.Nodes {
		nodeID, err := ua.ParseNodeID(node.NodeID)
		if err != nil {
			c.cleanupOnError(ctx, cancel, sub, client)
			return fmt.Errorf("parse node id %q: %w", node.NodeID, err)
		}
		handle := uint32(i + 1)
		req := opcua.NewMonitoredItemCreateRequestWithDefaults(nodeID, ua.AttributeIDValue, handle)
		if c.cfg.SamplingInterval > 0 {
			req.RequestedParameters.SamplingInterval = float64(c.cfg.SamplingInterval / time.Millisecond)
		}
		res, err := sub.Monitor(ctx, ua.TimestampsToReturnBoth, req)
		if err != nil {
			c.cleanupOnError(ctx, cancel, sub, client)
			return fmt.Errorf("monitor node %q: %w", node.NodeID, err)
		}
		if len(res.Results) == 0 {
			c.cleanupOnError(ctx, cancel, sub, client)
			return fmt.Errorf("monitor node %q failed: empty result", node.NodeID)
		}
		if res.Results[0].StatusCode != ua.StatusOK {
			c.cleanupOnError(ctx, cancel, sub, client)
			return fmt.Errorf("monitor node %q failed: %s", node.NodeID, res.Results[0].StatusCode)
		}
		handleMap[handle] = node
	}

	c.mu.Lock()
	c.client = client
	c.sub = sub
	c.cancel = cancel
	c.handleMap = handleMap
	c.started = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.consume(ctx, notifyCh, out)
	return nil
}

func (c *Collector) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	cancel := c.cancel
	sub := c.sub
	client := c.client
	c.started = false
	c.cancel = nil
	c.sub = nil
	c.client = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	ctx, ctxCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer ctxCancel()

	var err error
	if sub != nil {
		if e := sub.Cancel(ctx); e != nil && !errors.Is(e, context.Canceled) {
			err = errors.Join(err, e)
		}
	}
	if client != nil {
		if e := client.Close(ctx); e != nil && !errors.Is(e, context.Canceled) {
			err = errors.Join(err, e)
		}
	}

	c.wg.Wait()
	return err
}

func (c *Collector) consume(ctx context.Context, ch <-chan *opcua.PublishNotificationData, out chan<- *domain.Sample) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case notif := <-ch:
			if notif == nil {
				continue
			}
			if notif.Error != nil {
				c.logger.Warn("notification error", "error", notif.Error)
				continue
			}
			data, ok := notif.Value.(*ua.DataChangeNotification)
			if !ok {
				continue
			}
			for _, item := range data.MonitoredItems {
				node, ok := c.handleMap[item.ClientHandle]
				if !ok {
					continue
				}
				sample, ok := toSample(node, item.Value)
				if !ok {
					c.logger.Warn("skipping value", "node", node.NodeID, "type", valueType(item.Value))
					continue
				}
				select {
				case <-ctx.Done():
					return
				case out <- sample:
				}
			}
		}
	}
}

// toSample converts one data value. A bad status without a value yields a
// sample with nil Value, so the gap shows up in the history.
func toSample(node NodeConfig, dv *ua.DataValue) (*domain.Sample, bool) {
	if dv == nil {
		return nil, false
	}
	ts := dv.SourceTimestamp
	if ts.IsZero() {
		ts = dv.ServerTimestamp
	}
	if ts.IsZero() {
		ts = time.Now()
	}
	sample := &domain.Sample{
		SeriesID:  node.ID,
		Timestamp: ts,
		Status:    statusOf(dv.Status),
	}
	if dv.Value == nil || dv.Value.Value() == nil {
		if dv.Status == ua.StatusOK {
			return nil, false
		}
		return sample, true
	}
	wave, ok := variantToWaveform(dv.Value)
	if !ok {
		return nil, false
	}
	sample.Value = wave
	if len(wave) > 0 {
		sample.Position = wave[0]
	}
	return sample, true
}

func valueType(dv *ua.DataValue) string {
	if dv == nil || dv.Value == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", dv.Value.Value())
}

func statusOf(code ua.StatusCode) domain.Status {
	switch {
	case code == ua.StatusOK:
		return domain.Status{Severity: "NONE", Message: "OK"}
	case uint32(code)&0x80000000 != 0:
		return domain.Status{Severity: "INVALID", Message: code.Error()}
	default:
		return domain.Status{Severity: "MINOR", Message: code.Error()}
	}
}

type number interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64 | ~float32 | ~float64
}

func widen[T number](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

// variantToWaveform accepts numeric arrays and numeric scalars. Scalars
// become one-element waveforms.
func variantToWaveform(v *ua.Variant) ([]float64, bool) {
	if v == nil {
		return nil, false
	}

	switch val := v.Value().(type) {
	case []float64:
		return widen(val), true
	case []float32:
		return widen(val), true
	case []int8:
		return widen(val), true
	case []uint8:
		return widen(val), true
	case []int16:
		return widen(val), true
	case []uint16:
		return widen(val), true
	case []int32:
		return widen(val), true
	case []uint32:
		return widen(val), true
	case []int64:
		return widen(val), true
	case []uint64:
		return widen(val), true
	case float32:
		return []float64{float64(val)}, true
	case float64:
		return []float64{val}, true
	case int8:
		return []float64{float64(val)}, true
	case uint8:
		return []float64{float64(val)}, true
	case int16:
		return []float64{float64(val)}, true
	case uint16:
		return []float64{float64(val)}, true
	case int32:
		return []float64{float64(val)}, true
	case uint32:
		return []float64{float64(val)}, true
	case int64:
		return []float64{float64(val)}, true
	case uint64:
		return []float64{float64(val)}, true
	default:
		return nil, false
	}
}

func (c *Collector) buildClientOptions() []opcua.Option {
	opts := []opcua.Option{
		opcua.SecurityModeString(normalizeSecurityMode(c.cfg.SecurityMode)),
		opcua.SecurityPolicy(normalizeSecurityPolicy(c.cfg.SecurityPolicy)),
		opcua.ApplicationName(c.cfg.ApplicationName),
		opcua.AutoReconnect(true),
	}

	if c.cfg.Username != "" {
		opts = append(opts, opcua.AuthUsername(c.cfg.Username, c.cfg.Password))
	} else {
		opts = append(opts, opcua.AuthAnonymous())
	}
	return opts
}

func (c *Collector) cleanupOnError(ctx context.Context, cancel context.CancelFunc, sub *opcua.Subscription, client *opcua.Client) {
	cancel()
	if sub != nil {
		_ = sub.Cancel(ctx)
	}
	if client != nil {
		_ = client.Close(ctx)
	}
}

func normalizeSecurityMode(mode string) string {
	switch strings.ToLower(mode) {
	case "sign":
		return "Sign"
	case "signandencrypt", "signencrypt", "sign_and_encrypt", "sign+encrypt":
		return "SignAndEncrypt"
	default:
		return "None"
	}
}

func normalizeSecurityPolicy(policy string) string {
	if policy == "" {
		return "None"
	}
	return policy
}

var _ ports.Collector = (*Collector)(nil)
