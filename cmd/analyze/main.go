// Package main runs the analog analysis for one symbol and prints the
// results as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"analog-lab/internal/app"
	"analog-lab/internal/config"
	"analog-lab/internal/logging"
	"analog-lab/internal/orchestrator"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	symbol := flag.String("symbol", "", "Symbol to analyse (required)")
	csvPath := flag.String("csv", "", "Import bars for the symbol from a CSV file first")
	period := flag.String("period", "", "History window, e.g. 1y, 6M, max (default from config)")
	asOf := flag.String("as-of", "", "Analyse as of this date (YYYY-MM-DD)")
	refPrice := flag.Float64("reference-price", 0, "Match against this price instead of the last close")
	flag.Parse()

	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "--symbol is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Warn().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("build app")
	}
	defer a.Close()

	if *csvPath != "" {
		if _, err := a.ImportCSV(ctx, *symbol, *csvPath); err != nil {
			logger.Fatal().Err(err).Msg("import bars")
		}
	}

	req := orchestrator.AnalyzeRequest{Symbol: *symbol, Period: *period}
	if *asOf != "" {
		t, err := time.Parse(time.DateOnly, *asOf)
		if err != nil {
			logger.Fatal().Err(err).Msg("--as-of must be YYYY-MM-DD")
		}
		req.AsOf = &t
	}
	if *refPrice > 0 {
		req.ReferencePrice = refPrice
	}

	results, err := a.Orchestrator.Analyze(ctx, req)
	if err != nil {
		logger.Fatal().Err(err).Str("symbol", *symbol).Msg("analysis failed")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		logger.Fatal().Err(err).Msg("encode results")
	}
}
