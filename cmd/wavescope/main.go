package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ghalamif/wavescope"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("wavescope %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file")
	selection := fs.String("select", "", "Comma separated series ids to inspect, primary first (overrides inspector.selection)")
	index := fs.Int("index", -1, "Initial sample index (overrides inspector.index)")
	jsonLogs := fs.Bool("json", false, "Emit JSON log lines")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var handler slog.Handler = slog.NewTextHandler(os.Stderr, nil)
	if *jsonLogs {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	}
	slog.SetDefault(slog.New(handler))

	flow, err := wavescope.Conf(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *selection != "" {
		flow.Config().Inspector.Selection = splitIDs(*selection)
	}
	if *index >= 0 {
		flow.Config().Inspector.Index = *index
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return flow.Run(ctx, wavescope.ViewOutCallback("stdout", printSelection))
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := wavescope.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good: %d series, selection %v\n", *cfgPath, len(cfg.AllSeries()), cfg.Inspector.Selection)
	return nil
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printSelection(s wavescope.Selection) {
	if !s.Enabled {
		fmt.Println("selection: none")
		return
	}
	fmt.Printf("selection: %d/%d  %s  [%s]\n", s.Index, s.Max-1, s.TimestampText, s.StatusText)
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets := map[string]float64{
		"wavescope_samples_appended_total": 0,
		"wavescope_samples_rejected_total": 0,
		"wavescope_history_samples":        0,
		"wavescope_index_moves_total":      0,
		"wavescope_settles_total":          0,
		"wavescope_journal_size_bytes":     0,
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for key := range targets {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %g", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	fmt.Printf("[%s] appended=%.0f rejected=%.0f history=%.0f moves=%.0f settles=%.0f journal_bytes=%.0f\n",
		time.Now().Format(time.RFC3339),
		targets["wavescope_samples_appended_total"],
		targets["wavescope_samples_rejected_total"],
		targets["wavescope_history_samples"],
		targets["wavescope_index_moves_total"],
		targets["wavescope_settles_total"],
		targets["wavescope_journal_size_bytes"],
	)
	return nil
}

func splitIDs(raw string) []string {
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func printUsage() {
	fmt.Printf(`WaveScope CLI

Usage:
  wavescope <command> [flags]

Commands:
  run        Start the inspector runtime using the provided config
  validate   Load and validate a config file without starting the runtime
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  wavescope run -config ./data/config.yaml -select scope:wave1,scope:wave2
  wavescope validate -config ./data/config.yaml
  wavescope stats -url http://localhost:9100/metrics -interval 1s
`)
}
