// Package main replays one strategy over one symbol through the backtest
// engine and prints the result.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"analog-lab/internal/app"
	"analog-lab/internal/config"
	"analog-lab/internal/domain"
	"analog-lab/internal/logging"
	"analog-lab/internal/reporting"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to YAML config file")
	symbol := flag.String("symbol", "", "Symbol to backtest (required)")
	csvPath := flag.String("csv", "", "Import bars for the symbol from a CSV file first")
	period := flag.String("period", "", "History window, e.g. 1y, 6M, max (default from config)")
	strategyType := flag.String("strategy", domain.StrategyTypeAnalog, "Strategy: ANALOG, RSI, BUY_AND_HOLD")
	signalsPath := flag.String("signals", "", "Replay a supplied signal series (one label per line, or CSV with a signal column) instead of -strategy")

	// Strategy parameters
	horizon := flag.Int("horizon", 20, "Advice horizon for ANALOG")
	warmup := flag.Int("warmup", 120, "Bars held flat before the first ANALOG signal")
	rsiPeriod := flag.Int("rsi-period", 14, "RSI lookback")
	oversold := flag.Float64("oversold", 30, "RSI buy threshold")
	overbought := flag.Float64("overbought", 70, "RSI sell threshold")

	// Output
	format := flag.String("format", "json", "Output: json, trades-csv, equity-csv")
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

	series, err := a.Orchestrator.LoadSeriesPeriod(ctx, *symbol, *period)
	if err != nil {
		logger.Fatal().Err(err).Str("symbol", *symbol).Msg("load series")
	}

	var result *domain.BacktestResult
	if *signalsPath != "" {
		labels, readErr := app.ReadSignalsFile(*signalsPath)
		if readErr != nil {
			logger.Fatal().Err(readErr).Msg("read signals")
		}
		logger.Info().Str("symbol", series.Symbol).Str("signals", *signalsPath).Int("bars", series.Len()).Msg("replaying supplied signals")
		result, err = a.Orchestrator.BacktestSignals(ctx, series, labels)
	} else {
		strategyConfig := buildStrategyConfig(strings.ToUpper(*strategyType), *horizon, *warmup, *rsiPeriod, *oversold, *overbought)
		logger.Info().Str("symbol", series.Symbol).Str("strategy", strategyConfig.Type).Int("bars", series.Len()).Msg("running backtest")
		result, err = a.Orchestrator.Backtest(ctx, series, strategyConfig)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("backtest failed")
	}

	// Output result
	switch *format {
	case "trades-csv":
		fmt.Print(reporting.RenderTradesCSV(result.Trades))
	case "equity-csv":
		fmt.Print(reporting.RenderEquityCSV(series, result.EquityCurve))
	default:
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	}
}

// buildStrategyConfig creates a StrategyConfig from CLI flags.
func buildStrategyConfig(strategyType string, horizon, warmup, rsiPeriod int, oversold, overbought float64) domain.StrategyConfig {
	cfg := domain.StrategyConfig{Type: strategyType}

	switch strategyType {
	case domain.StrategyTypeAnalog:
		cfg.Horizon = &horizon
		cfg.Warmup = &warmup
	case domain.StrategyTypeRSI:
		cfg.RSIPeriod = &rsiPeriod
		cfg.Oversold = &oversold
		cfg.Overbought = &overbought
	}

	return cfg
}
