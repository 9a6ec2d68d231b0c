package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yanun0323/logs"

	"main/internal/config"
	"main/internal/engine"
	"main/internal/fill"
	"main/internal/metrics"
	"main/internal/pathgen"
	"main/internal/risk"
	"main/internal/schema"
	"main/internal/store"
	"main/internal/strategy"
	"main/internal/ticklog"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON or YAML config")
	resultPath := flag.String("result", "", "Write the full result record as JSON to this path")
	timeout := flag.Duration("timeout", 0, "Abort the run after this duration (0=none)")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address during the run (empty=off)")
	flag.Parse()

	if *configPath == "" {
		log.Fatalf("-config is required")
	}
	loaded, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	strat, err := strategy.NewCoveredCall(loaded.Strategy, loaded.Surface)
	if err != nil {
		log.Fatalf("strategy init failed: %v", err)
	}
	eng, err := engine.New(loaded.Engine, strat, fill.NewModel(loaded.Fill), risk.NewEngine(loaded.Risk))
	if err != nil {
		log.Fatalf("engine init failed: %v", err)
	}

	if *metricsAddr != "" {
		registry := prometheus.NewRegistry()
		exporter, err := metrics.NewExporter(registry)
		if err != nil {
			log.Fatalf("metrics init failed: %v", err)
		}
		eng.UseExporter(exporter)
		go serveMetrics(*metricsAddr, registry)
	}

	if err := enqueue(eng, loaded.Source); err != nil {
		log.Fatalf("event load failed: %v", err)
	}
	logs.Infof("queued %d events", eng.QueueLen())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	result := eng.Run(ctx)
	logs.Infof("run %s finished: status=%s events=%d eps=%.0f cash=%s realised=%s",
		result.RunID, result.Status, result.EventsProcessed,
		result.Performance.EventsPerSecond,
		result.FinalPortfolio.Cash, result.FinalPortfolio.RealisedPnl)
	for _, msg := range result.Errors {
		logs.Errorf("run error: %s", msg)
	}

	if *resultPath != "" {
		if err := writeResult(*resultPath, result); err != nil {
			log.Fatalf("result write failed: %v", err)
		}
	}
	if loaded.Store.Enabled {
		if err := persist(loaded.Store.ConnString, result); err != nil {
			log.Fatalf("result store failed: %v", err)
		}
	}
	if result.Status != engine.StatusOk {
		os.Exit(1)
	}
}

// enqueue loads recorded files first, then any synthetic path, into the
// kernel queue. Replay pacing is ignored here: the backtest clock is the
// recorded timestamps, not the wall clock.
func enqueue(eng *engine.Engine, source config.SourceConfig) error {
	if len(source.Paths) > 0 {
		err := ticklog.Play(ticklog.PlaybackConfig{Paths: source.Paths}, func(ev schema.Event) error {
			return eng.Add(ev)
		})
		if err != nil {
			return err
		}
	}
	if source.Pathgen != nil {
		gen, err := pathgen.New(*source.Pathgen)
		if err != nil {
			return err
		}
		for _, ev := range gen.Generate() {
			if err := eng.Add(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

func serveMetrics(addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	logs.Infof("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logs.Errorf("metrics server on %s, err: %v", addr, err)
	}
}

func writeResult(path string, result engine.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func persist(connString string, result engine.Result) error {
	db, err := store.Open(connString)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logs.Errorf("close result store: %v", err)
		}
	}()
	if err := db.SaveResult(result); err != nil {
		return err
	}
	logs.Infof("run %s persisted", result.RunID)
	return nil
}
