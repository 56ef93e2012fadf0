package observability

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ghalamif/wavescope/internal/domain"
	"github.com/ghalamif/wavescope/internal/ports"
)

func TestPromObsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := NewPromObs(reg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	obs.IncCounter(SamplesAppended, 5)
	if got := testutil.ToFloat64(obs.counters[SamplesAppended]); got != 5 {
		t.Fatalf("expected appended counter 5, got %f", got)
	}

	obs.IncCounter(EchoSuppressed, 2)
	if got := testutil.ToFloat64(obs.counters[EchoSuppressed]); got != 2 {
		t.Fatalf("expected echo counter 2, got %f", got)
	}

	obs.SetGauge(JournalSizeBytes, 42)
	if got := testutil.ToFloat64(obs.gauges[JournalSizeBytes]); got != 42 {
		t.Fatalf("expected journal gauge 42, got %f", got)
	}

	obs.ObserveLatency(PublishLatency, 0.002)
	hCollector := obs.histos[PublishLatency].(prometheus.Collector)
	if samples := testutil.CollectAndCount(hCollector); samples != 1 {
		t.Fatalf("expected latency histogram to record 1 sample, got %d", samples)
	}

	obs.RecordRejected(nil, nil)
	if got := testutil.ToFloat64(obs.counters[SamplesRejected]); got != 1 {
		t.Fatalf("expected rejected counter 1, got %f", got)
	}

	obs.IncCounter("unknown_metric", 1)
}

func TestPromObsStructuredLogs(t *testing.T) {
	var buf bytes.Buffer
	obs := NewPromObs(prometheus.NewRegistry(), slog.New(slog.NewTextHandler(&buf, nil)))

	obs.LogInfo("selection_changed", ports.Field{Key: "index", Value: 3})
	obs.LogError("journal_append_failed", errors.New("disk full"), ports.Field{Key: "series", Value: "wave-1"})
	obs.LogError("ignored", nil)
	obs.RecordRejected(&domain.Sample{SeriesID: "wave-2"}, errors.New("out of order"))

	out := buf.String()
	for _, want := range []string{"selection_changed", "index=3", "disk full", "series=wave-1", "sample_rejected", "wave-2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected log output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "ignored") {
		t.Fatalf("nil error must not be logged")
	}
}
