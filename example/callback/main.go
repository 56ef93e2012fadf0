package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/wavescope/pkg/wavescope"
)

// Feeds a simulated sine waveform through a Publisher and prints every
// selection change.
func main() {
	cfg, err := wavescope.ParseConfig([]byte(`
series:
  - series_id: sim:sine
    display_name: Sine
inspector:
  selection: [sim:sine]
journal:
  disabled: true
`))
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pub := wavescope.NewPublisher(64)
	go simulate(ctx, pub)

	flow, err := wavescope.ConfFromConfig(cfg)
	if err != nil {
		log.Fatalf("flow: %v", err)
	}

	callback := func(s wavescope.Selection) {
		if !s.Enabled {
			return
		}
		fmt.Printf("index=%d/%d %s status=%s\n", s.Index, s.Max, s.TimestampText, s.StatusText)
	}

	err = flow.
		FeedIN(wavescope.FeedInCollector(pub)).
		Run(ctx, wavescope.ViewOutCallback("stdout", callback))
	if err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func simulate(ctx context.Context, pub *wavescope.Publisher) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var phase float64
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			wave := make([]float64, 64)
			for i := range wave {
				wave[i] = math.Sin(phase + float64(i)*2*math.Pi/64)
			}
			phase += 0.1
			_ = pub.Publish(ctx, wavescope.Sample{
				SeriesID:  "sim:sine",
				Timestamp: now,
				Value:     wave,
				Position:  wave[0],
				Severity:  "NONE",
				Message:   "OK",
			})
		}
	}
}
