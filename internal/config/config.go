// Package config defines the top-level configuration for the estimation
// service and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by MORDEX_* environment variables.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Oracle     OracleConfig     `toml:"oracle"`
	AMM        AMMConfig        `toml:"amm"`
	Bridge     BridgeConfig     `toml:"bridge"`
	Reasoning  ReasoningConfig  `toml:"reasoning"`
	Settlement SettlementConfig `toml:"settlement"`
	CostModel  CostModelConfig  `toml:"cost_model"`
	Risk       RiskConfig       `toml:"risk"`
	Monitor    MonitorConfig    `toml:"monitor"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	ApiKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit"`
	RateWindow  duration `toml:"rate_window"`
}

// PostgresConfig holds PostgreSQL connection parameters. DSN takes precedence
// over the individual fields when set.
type PostgresConfig struct {
	Enabled       bool   `toml:"enabled"`
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool     `toml:"enabled"`
	Addr       string   `toml:"addr"`
	Password   string   `toml:"password"`
	DB         int      `toml:"db"`
	PoolSize   int      `toml:"pool_size"`
	MaxRetries int      `toml:"max_retries"`
	TLSEnabled bool     `toml:"tls_enabled"`
	QuoteTTL   duration `toml:"quote_ttl"`
}

// S3Config holds S3-compatible object storage parameters for estimate
// archival.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// OracleConfig holds the price oracle endpoint parameters.
type OracleConfig struct {
	BaseURL string   `toml:"base_url"`
	Asset   string   `toml:"asset"`
	Timeout duration `toml:"timeout"`
}

// AMMConfig holds the pool state endpoint parameters.
type AMMConfig struct {
	BaseURL string   `toml:"base_url"`
	Pair    string   `toml:"pair"`
	Timeout duration `toml:"timeout"`
}

// BridgeConfig holds the bridge relayer quote endpoint parameters.
type BridgeConfig struct {
	BaseURL string   `toml:"base_url"`
	Timeout duration `toml:"timeout"`
}

// ReasoningConfig holds the AI reasoning service parameters. An empty api_key
// disables the advisory layer entirely; the service then classifies risk with
// the deterministic rules alone.
type ReasoningConfig struct {
	BaseURL     string   `toml:"base_url"`
	ApiKey      string   `toml:"api_key"`
	Model       string   `toml:"model"`
	Temperature float64  `toml:"temperature"`
	Timeout     duration `toml:"timeout"`
}

// SettlementConfig holds the settlement contract parameters. BlockTime is the
// destination chain's block time, used as timing context for risk
// classification.
type SettlementConfig struct {
	Enabled         bool     `toml:"enabled"`
	RpcURL          string   `toml:"rpc_url"`
	ContractAddress string   `toml:"contract_address"`
	BlockTime       duration `toml:"block_time"`
}

// CostModelConfig holds the network and protocol constants the cost functions
// operate on.
type CostModelConfig struct {
	GasPriceGwei         int64   `toml:"gas_price_gwei"`
	SwapGasUnits         uint64  `toml:"swap_gas_units"`
	MEVGasUnits          uint64  `toml:"mev_gas_units"`
	PriorityFeeBaseGwei  float64 `toml:"priority_fee_base_gwei"`
	PriorityFeeCapGwei   float64 `toml:"priority_fee_cap_gwei"`
	PriorityFeeSlopeGwei float64 `toml:"priority_fee_slope_gwei"`
	BuilderTipRate       float64 `toml:"builder_tip_rate"`
	DefaultFeeTier       int     `toml:"default_fee_tier"`
}

// RiskConfig holds the deterministic classifier thresholds. Zero values fall
// back to the built-in defaults at wiring time.
type RiskConfig struct {
	GasRatioHigh          float64 `toml:"gas_ratio_high"`
	GasRatioMedium        float64 `toml:"gas_ratio_medium"`
	SlippageHighUSD       float64 `toml:"slippage_high_usd"`
	MarginThinUSD         float64 `toml:"margin_thin_usd"`
	MarginSafeUSD         float64 `toml:"margin_safe_usd"`
	SpreadAnomalousPct    float64 `toml:"spread_anomalous_pct"`
	LowLiquidityMaxAmount float64 `toml:"low_liquidity_max_amount"`
	ConfidenceSafe        float64 `toml:"confidence_safe"`
	ConfidenceDefault     float64 `toml:"confidence_default"`
}

// MonitorConfig holds the background estimation loop parameters.
type MonitorConfig struct {
	Interval             duration `toml:"interval"`
	Amount               string   `toml:"amount"`
	ArchiveInterval      duration `toml:"archive_interval"`
	ArchiveRetentionDays int      `toml:"archive_retention_days"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Enabled:     true,
			Port:        8000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit:   60,
			RateWindow:  duration{time.Minute},
		},
		Postgres: PostgresConfig{
			Enabled:       false,
			Host:          "localhost",
			Port:          5432,
			Database:      "mordex",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			DB:         0,
			PoolSize:   20,
			MaxRetries: 3,
			TLSEnabled: false,
			QuoteTTL:   duration{30 * time.Second},
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "mordex-data",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Oracle: OracleConfig{
			BaseURL: "http://localhost:8100",
			Asset:   "ETH",
			Timeout: duration{5 * time.Second},
		},
		AMM: AMMConfig{
			BaseURL: "http://localhost:8101",
			Pair:    "ETH-USDC",
			Timeout: duration{5 * time.Second},
		},
		Bridge: BridgeConfig{
			BaseURL: "http://localhost:8102",
			Timeout: duration{5 * time.Second},
		},
		Reasoning: ReasoningConfig{
			BaseURL:     "https://api.openai.com",
			Model:       "gpt-4o-mini",
			Temperature: 0.1,
			Timeout:     duration{15 * time.Second},
		},
		Settlement: SettlementConfig{
			Enabled:   false,
			BlockTime: duration{12 * time.Second},
		},
		CostModel: CostModelConfig{
			GasPriceGwei:         20,
			SwapGasUnits:         150_000,
			MEVGasUnits:          21_000,
			PriorityFeeBaseGwei:  2,
			PriorityFeeCapGwei:   3,
			PriorityFeeSlopeGwei: 10,
			BuilderTipRate:       0.0003,
			DefaultFeeTier:       3000,
		},
		Monitor: MonitorConfig{
			Interval:             duration{30 * time.Second},
			Amount:               "0.01",
			ArchiveInterval:      duration{24 * time.Hour},
			ArchiveRetentionDays: 90,
		},
		Notify: NotifyConfig{
			Events: []string{"opportunity", "error"},
		},
		Mode:     "server",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server":  true,
	"monitor": true,
	"full":    true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, monitor, full)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Server
	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server: rate_limit must be >= 0")
		}
		if c.Server.RateLimit > 0 && c.Server.RateWindow.Duration <= 0 {
			errs = append(errs, "server: rate_window must be positive when rate_limit is set")
		}
	}

	// Postgres
	if c.Postgres.Enabled {
		if strings.TrimSpace(c.Postgres.DSN) == "" {
			if c.Postgres.Host == "" {
				errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
			}
			if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
				errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
			}
			if c.Postgres.Database == "" {
				errs = append(errs, "postgres: database must not be empty")
			}
		}
		if c.Postgres.PoolMaxConns < 1 {
			errs = append(errs, "postgres: pool_max_conns must be >= 1")
		}
		if c.Postgres.PoolMinConns < 0 {
			errs = append(errs, "postgres: pool_min_conns must be >= 0")
		}
		if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
			errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
		}
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
		if c.Redis.QuoteTTL.Duration <= 0 {
			errs = append(errs, "redis: quote_ttl must be positive")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			errs = append(errs, "s3: endpoint must not be empty")
		}
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if !c.Postgres.Enabled {
			errs = append(errs, "s3: archival requires postgres to be enabled")
		}
	}

	// Cost sources
	if c.Oracle.BaseURL == "" {
		errs = append(errs, "oracle: base_url must not be empty")
	}
	if c.Oracle.Asset == "" {
		errs = append(errs, "oracle: asset must not be empty")
	}
	if c.AMM.BaseURL == "" {
		errs = append(errs, "amm: base_url must not be empty")
	}
	if c.AMM.Pair == "" {
		errs = append(errs, "amm: pair must not be empty")
	}
	if c.Bridge.BaseURL == "" {
		errs = append(errs, "bridge: base_url must not be empty")
	}

	// Reasoning is optional, but a configured key needs an endpoint.
	if c.Reasoning.ApiKey != "" {
		if c.Reasoning.BaseURL == "" {
			errs = append(errs, "reasoning: base_url must not be empty when api_key is set")
		}
		if c.Reasoning.Temperature < 0 || c.Reasoning.Temperature > 2 {
			errs = append(errs, fmt.Sprintf("reasoning: temperature must be 0-2, got %g", c.Reasoning.Temperature))
		}
	}

	// Settlement
	if c.Settlement.Enabled {
		if c.Settlement.RpcURL == "" {
			errs = append(errs, "settlement: rpc_url must not be empty when enabled")
		}
		if c.Settlement.ContractAddress == "" {
			errs = append(errs, "settlement: contract_address must not be empty when enabled")
		}
	}

	// Cost model
	if c.CostModel.GasPriceGwei <= 0 {
		errs = append(errs, "cost_model: gas_price_gwei must be > 0")
	}
	if c.CostModel.SwapGasUnits == 0 {
		errs = append(errs, "cost_model: swap_gas_units must be > 0")
	}
	if c.CostModel.MEVGasUnits == 0 {
		errs = append(errs, "cost_model: mev_gas_units must be > 0")
	}
	if c.CostModel.BuilderTipRate < 0 {
		errs = append(errs, "cost_model: builder_tip_rate must be >= 0")
	}
	switch c.CostModel.DefaultFeeTier {
	case 500, 3000, 10000:
	default:
		errs = append(errs, fmt.Sprintf("cost_model: default_fee_tier must be one of 500, 3000, 10000, got %d", c.CostModel.DefaultFeeTier))
	}

	// Monitor
	if c.Mode == "monitor" || c.Mode == "full" {
		if c.Monitor.Interval.Duration <= 0 {
			errs = append(errs, "monitor: interval must be positive")
		}
		if strings.TrimSpace(c.Monitor.Amount) == "" {
			errs = append(errs, "monitor: amount must not be empty")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
