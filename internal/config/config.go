// Package config loads runtime configuration from a YAML file, .env and
// ANALOG_-prefixed environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"analog-lab/internal/decision"
	"analog-lab/internal/domain"
	"analog-lab/internal/logging"
	"analog-lab/internal/regime"
)

// EnvPrefix prefixes every environment override, e.g. ANALOG_WORKERS.
const EnvPrefix = "ANALOG"

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverDatabase = "database" // Postgres for results, ClickHouse for bars
)

// Config errors
var (
	ErrInvalidConfig = errors.New("invalid config")
)

// Config is the full runtime configuration.
type Config struct {
	Symbols    []string                   `mapstructure:"symbols"`
	Period     string                     `mapstructure:"period"`
	Workers    int                        `mapstructure:"workers"`
	Analysis   domain.AnalysisConfig      `mapstructure:"analysis"`
	Scoring    decision.ConfidenceWeights `mapstructure:"scoring"`
	Sizing     decision.SizingConfig      `mapstructure:"sizing"`
	Regime     RegimeConfig               `mapstructure:"regime"`
	Backtest   domain.BacktestConfig      `mapstructure:"backtest"`
	Strategies []domain.StrategyConfig    `mapstructure:"strategies"`
	Storage    StorageConfig              `mapstructure:"storage"`
	Cache      CacheConfig                `mapstructure:"cache"`
	Logging    logging.Config             `mapstructure:"logging"`
	Server     ServerConfig               `mapstructure:"server"`
}

// RegimeConfig toggles and tunes the regime classifier.
type RegimeConfig struct {
	Enabled bool           `mapstructure:"enabled"`
	Options regime.Options `mapstructure:",squash"`
}

// StorageConfig selects and addresses the stores.
type StorageConfig struct {
	Driver             string `mapstructure:"driver"`
	PostgresDSN        string `mapstructure:"postgres_dsn"`
	ClickHouseDSN      string `mapstructure:"clickhouse_dsn"`
	ClickHouseDatabase string `mapstructure:"clickhouse_database"`
	Migrate            bool   `mapstructure:"migrate"`
}

// CacheConfig controls the series cache.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"` // 0 disables expiry
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	RateLimit    float64       `mapstructure:"rate_limit"` // requests per second
	RateBurst    int           `mapstructure:"rate_burst"`
	RunInterval  time.Duration `mapstructure:"run_interval"` // 0 disables periodic pipeline runs
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Load reads configuration. path may be empty, in which case only defaults,
// .env and the environment apply. A missing .env is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	analysis := domain.DefaultAnalysisConfig()
	weights := decision.DefaultConfidenceWeights()
	sizing := decision.DefaultSizingConfig()
	reg := regime.DefaultOptions()
	bt := domain.DefaultBacktestConfig()
	logCfg := logging.DefaultConfig()

	v.SetDefault("symbols", []string{})
	v.SetDefault("period", "3y")
	v.SetDefault("workers", 4)

	v.SetDefault("analysis.tolerance", analysis.Tolerance)
	v.SetDefault("analysis.exclusion_days", analysis.ExclusionDays)
	v.SetDefault("analysis.horizons", analysis.Horizons)
	v.SetDefault("analysis.risk_free_daily", analysis.RiskFreeDaily)
	v.SetDefault("analysis.breach_level", analysis.BreachLevel)

	v.SetDefault("scoring.sample_size", weights.SampleSize)
	v.SetDefault("scoring.consistency", weights.Consistency)
	v.SetDefault("scoring.inflection", weights.Inflection)
	v.SetDefault("scoring.scale", weights.Scale)

	v.SetDefault("sizing.base_weight", sizing.BaseWeight)
	v.SetDefault("sizing.kelly_weight", sizing.KellyWeight)
	v.SetDefault("sizing.kelly_fraction", sizing.KellyFraction)
	v.SetDefault("sizing.min_position", sizing.MinPosition)
	v.SetDefault("sizing.max_position", sizing.MaxPosition)

	v.SetDefault("regime.enabled", true)
	v.SetDefault("regime.fast_period", reg.FastPeriod)
	v.SetDefault("regime.slow_period", reg.SlowPeriod)
	v.SetDefault("regime.short_atr", reg.ShortATR)
	v.SetDefault("regime.long_atr", reg.LongATR)
	v.SetDefault("regime.momentum_lookback", reg.MomentumLookback)
	v.SetDefault("regime.strong_momentum", reg.StrongMomentum)
	v.SetDefault("regime.volatility_ratio", reg.VolatilityRatio)

	v.SetDefault("backtest.initial_capital", bt.InitialCapital)
	v.SetDefault("backtest.commission", bt.Commission)
	v.SetDefault("backtest.slippage", bt.Slippage)
	v.SetDefault("backtest.close_at_end", bt.CloseAtEnd)
	v.SetDefault("backtest.risk_free_daily", bt.RiskFreeDaily)

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("storage.clickhouse_database", "")
	v.SetDefault("storage.migrate", false)

	v.SetDefault("cache.ttl", "15m")

	v.SetDefault("logging.level", logCfg.Level)
	v.SetDefault("logging.format", logCfg.Format)
	v.SetDefault("logging.output", logCfg.Output)
	v.SetDefault("logging.directory", logCfg.Directory)
	v.SetDefault("logging.file_name", logCfg.FileName)
	v.SetDefault("logging.max_size_mb", logCfg.MaxSizeMB)
	v.SetDefault("logging.max_backups", logCfg.MaxBackups)
	v.SetDefault("logging.max_age_days", logCfg.MaxAgeDays)
	v.SetDefault("logging.compress", logCfg.Compress)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.rate_limit", 10.0)
	v.SetDefault("server.rate_burst", 20)
	v.SetDefault("server.run_interval", "0s")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
}

// DefaultStrategies is the strategy set used when none is configured.
func DefaultStrategies() []domain.StrategyConfig {
	horizon, warmup := 20, 120
	period, oversold, overbought := 14, 30.0, 70.0
	return []domain.StrategyConfig{
		{Type: domain.StrategyTypeAnalog, Horizon: &horizon, Warmup: &warmup},
		{Type: domain.StrategyTypeRSI, RSIPeriod: &period, Oversold: &oversold, Overbought: &overbought},
		{Type: domain.StrategyTypeBuyAndHold},
	}
}

// applyDefaults fills values that viper defaults cannot express.
func (c *Config) applyDefaults() {
	if len(c.Strategies) == 0 {
		c.Strategies = DefaultStrategies()
	}
	for i, s := range c.Symbols {
		c.Symbols[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
}

// Validate checks every section.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	if _, err := domain.PeriodStart(c.Period, time.Now()); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	checks := []struct {
		section string
		err     error
	}{
		{"analysis", c.Analysis.Validate()},
		{"scoring", c.Scoring.Validate()},
		{"sizing", c.Sizing.Validate()},
		{"backtest", c.Backtest.Validate()},
	}
	for _, chk := range checks {
		if chk.err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, chk.section, chk.err)
		}
	}

	for i, s := range c.Strategies {
		switch s.Type {
		case domain.StrategyTypeAnalog, domain.StrategyTypeRSI, domain.StrategyTypeBuyAndHold:
		default:
			return fmt.Errorf("%w: strategies[%d]: unknown type %q", ErrInvalidConfig, i, s.Type)
		}
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverDatabase:
		if c.Storage.PostgresDSN == "" || c.Storage.ClickHouseDSN == "" {
			return fmt.Errorf("%w: storage driver %q needs postgres_dsn and clickhouse_dsn", ErrInvalidConfig, c.Storage.Driver)
		}
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
		return fmt.Errorf("%w: server rate limit and burst must be positive", ErrInvalidConfig)
	}
	return nil
}
