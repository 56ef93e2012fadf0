package wavescope

import (
	"context"
	"testing"
)

func TestConfFromConfigAndFeedBuilder(t *testing.T) {
	cfg := testConfig(t, "")

	flow, err := ConfFromConfig(cfg, WithFlowOptions(WithoutMetricsServer()))
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}
	if flow.Config() != cfg {
		t.Fatalf("expected Config to be returned verbatim")
	}

	col := NewPublisher(1)
	arch := &stubArchive{}
	var called bool

	rt, err := flow.
		FeedIN(
			FeedInCollector(col),
			FeedInArchive(arch),
			FeedInObservability(&stubObservability{}),
		).
		ViewOUT(
			ViewOutCallback("cb", func(Selection) { called = true }),
			ViewOutObservability(&stubObservability{}),
		)
	if err != nil {
		t.Fatalf("ViewOUT returned error: %v", err)
	}
	if rt.collector != col {
		t.Fatalf("expected custom collector to be wired")
	}
	if rt.archive != arch {
		t.Fatalf("expected custom archive to be wired")
	}
	if !rt.noMetrics {
		t.Fatalf("expected flow options to reach the runtime")
	}
	if called {
		t.Fatalf("callback must not run before the runtime starts")
	}
}

func TestFlowRunStopsOnCancelledContext(t *testing.T) {
	flow, err := ConfFromConfig(testConfig(t, ""))
	if err != nil {
		t.Fatalf("ConfFromConfig returned error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := flow.
		FeedIN(
			FeedInCollector(NewPublisher(1)),
			FeedInObservability(&stubObservability{}),
		).
		Options(WithoutMetricsServer()).
		Run(ctx); err != nil {
		t.Fatalf("Run returned unexpected error: %v", err)
	}
}

func TestNilFlow(t *testing.T) {
	var f *Flow
	if f.FeedIN() != nil || f.Config() != nil {
		t.Fatalf("expected nil flow helpers to return nil")
	}
	if _, err := f.ViewOUT(); err == nil {
		t.Fatalf("expected error from nil flow")
	}
}
