// Package main provides the batch pipeline entry point.
// Executes: import bars → analyses → backtests → aggregates
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"analog-lab/internal/app"
	"analog-lab/internal/config"
	"analog-lab/internal/logging"
	"analog-lab/internal/reporting"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	csvDir := flag.String("csv-dir", "", "Import every SYMBOL.csv in this directory before running")
	output := flag.String("output", "", "Write strategy aggregates CSV to this file (default stdout)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("cancelling pipeline")
		cancel()
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build app")
	}
	defer a.Close()

	if *csvDir != "" {
		if _, err := a.ImportDir(ctx, *csvDir); err != nil {
			logger.Fatal().Err(err).Msg("import bars")
		}
	}

	started := time.Now()
	result, err := a.Orchestrator.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("pipeline failed")
	}
	for _, e := range result.Errors {
		logger.Warn().Str("error", e).Msg("task failed")
	}
	logger.Info().
		Int("symbols", result.Symbols).
		Int("analyses", result.AnalysesCreated).
		Int("backtests", result.BacktestsRun).
		Int("trades", result.TradesCreated).
		Int("aggregates", result.AggregatesCreated).
		Dur("elapsed", time.Since(started)).
		Msg("pipeline finished")

	aggs, err := a.Orchestrator.Aggregates(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("load aggregates")
	}
	csv := reporting.RenderAggregatesCSV(aggs)

	if *output == "" {
		fmt.Print(csv)
		return
	}
	if err := os.WriteFile(*output, []byte(csv), 0o644); err != nil {
		logger.Fatal().Err(err).Str("file", *output).Msg("write aggregates")
	}
	logger.Info().Str("file", *output).Msg("aggregates written")
}
