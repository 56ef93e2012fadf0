package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ghalamif/wavescope"
)

func main() {
	flow, err := wavescope.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink, selections, closeSelections := wavescope.NewChannelSink("fanout", 32)
	defer closeSelections()

	go fanoutWorker("plot", selections)

	if err := flow.Run(ctx, wavescope.ViewOutSink(sink)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func fanoutWorker(name string, selections <-chan wavescope.Selection) {
	for sel := range selections {
		if !sel.Enabled {
			fmt.Printf("[%s] selection cleared at %s\n", name, time.Now().Format(time.RFC3339))
			continue
		}
		fmt.Printf("[%s] redraw %d waveforms at index %d (%s)\n", name, len(sel.Samples), sel.Index, sel.TimestampText)
	}
}
