package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies MORDEX_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known MORDEX_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setBool(&cfg.Server.Enabled, "MORDEX_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "MORDEX_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "MORDEX_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.ApiKey, "MORDEX_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "MORDEX_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "MORDEX_SERVER_RATE_WINDOW")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "MORDEX_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "MORDEX_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "MORDEX_DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "MORDEX_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "MORDEX_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "MORDEX_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "MORDEX_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "MORDEX_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "MORDEX_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "MORDEX_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "MORDEX_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "MORDEX_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "MORDEX_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "MORDEX_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "MORDEX_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "MORDEX_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "MORDEX_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "MORDEX_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "MORDEX_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.QuoteTTL, "MORDEX_REDIS_QUOTE_TTL")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "MORDEX_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "MORDEX_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "MORDEX_S3_REGION")
	setStr(&cfg.S3.Bucket, "MORDEX_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "MORDEX_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "MORDEX_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "MORDEX_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "MORDEX_S3_FORCE_PATH_STYLE")

	// ── Cost sources ──
	setStr(&cfg.Oracle.BaseURL, "MORDEX_ORACLE_BASE_URL")
	setStr(&cfg.Oracle.Asset, "MORDEX_ORACLE_ASSET")
	setDuration(&cfg.Oracle.Timeout, "MORDEX_ORACLE_TIMEOUT")
	setStr(&cfg.AMM.BaseURL, "MORDEX_AMM_BASE_URL")
	setStr(&cfg.AMM.Pair, "MORDEX_AMM_PAIR")
	setDuration(&cfg.AMM.Timeout, "MORDEX_AMM_TIMEOUT")
	setStr(&cfg.Bridge.BaseURL, "MORDEX_BRIDGE_BASE_URL")
	setDuration(&cfg.Bridge.Timeout, "MORDEX_BRIDGE_TIMEOUT")

	// ── Reasoning ──
	setStr(&cfg.Reasoning.BaseURL, "MORDEX_REASONING_BASE_URL")
	setStr(&cfg.Reasoning.ApiKey, "MORDEX_REASONING_API_KEY")
	setStr(&cfg.Reasoning.ApiKey, "OPENAI_API_KEY") // compatibility alias
	setStr(&cfg.Reasoning.Model, "MORDEX_REASONING_MODEL")
	setFloat64(&cfg.Reasoning.Temperature, "MORDEX_REASONING_TEMPERATURE")
	setDuration(&cfg.Reasoning.Timeout, "MORDEX_REASONING_TIMEOUT")

	// ── Settlement ──
	setBool(&cfg.Settlement.Enabled, "MORDEX_SETTLEMENT_ENABLED")
	setStr(&cfg.Settlement.RpcURL, "MORDEX_SETTLEMENT_RPC_URL")
	setStr(&cfg.Settlement.ContractAddress, "MORDEX_SETTLEMENT_CONTRACT_ADDRESS")
	setDuration(&cfg.Settlement.BlockTime, "MORDEX_SETTLEMENT_BLOCK_TIME")

	// ── Cost model ──
	setInt64(&cfg.CostModel.GasPriceGwei, "MORDEX_COST_MODEL_GAS_PRICE_GWEI")
	setUint64(&cfg.CostModel.SwapGasUnits, "MORDEX_COST_MODEL_SWAP_GAS_UNITS")
	setUint64(&cfg.CostModel.MEVGasUnits, "MORDEX_COST_MODEL_MEV_GAS_UNITS")
	setFloat64(&cfg.CostModel.PriorityFeeBaseGwei, "MORDEX_COST_MODEL_PRIORITY_FEE_BASE_GWEI")
	setFloat64(&cfg.CostModel.PriorityFeeCapGwei, "MORDEX_COST_MODEL_PRIORITY_FEE_CAP_GWEI")
	setFloat64(&cfg.CostModel.PriorityFeeSlopeGwei, "MORDEX_COST_MODEL_PRIORITY_FEE_SLOPE_GWEI")
	setFloat64(&cfg.CostModel.BuilderTipRate, "MORDEX_COST_MODEL_BUILDER_TIP_RATE")
	setInt(&cfg.CostModel.DefaultFeeTier, "MORDEX_COST_MODEL_DEFAULT_FEE_TIER")

	// ── Risk ──
	setFloat64(&cfg.Risk.GasRatioHigh, "MORDEX_RISK_GAS_RATIO_HIGH")
	setFloat64(&cfg.Risk.GasRatioMedium, "MORDEX_RISK_GAS_RATIO_MEDIUM")
	setFloat64(&cfg.Risk.SlippageHighUSD, "MORDEX_RISK_SLIPPAGE_HIGH_USD")
	setFloat64(&cfg.Risk.MarginThinUSD, "MORDEX_RISK_MARGIN_THIN_USD")
	setFloat64(&cfg.Risk.MarginSafeUSD, "MORDEX_RISK_MARGIN_SAFE_USD")
	setFloat64(&cfg.Risk.SpreadAnomalousPct, "MORDEX_RISK_SPREAD_ANOMALOUS_PCT")
	setFloat64(&cfg.Risk.LowLiquidityMaxAmount, "MORDEX_RISK_LOW_LIQUIDITY_MAX_AMOUNT")
	setFloat64(&cfg.Risk.ConfidenceSafe, "MORDEX_RISK_CONFIDENCE_SAFE")
	setFloat64(&cfg.Risk.ConfidenceDefault, "MORDEX_RISK_CONFIDENCE_DEFAULT")

	// ── Monitor ──
	setDuration(&cfg.Monitor.Interval, "MORDEX_MONITOR_INTERVAL")
	setStr(&cfg.Monitor.Amount, "MORDEX_MONITOR_AMOUNT")
	setDuration(&cfg.Monitor.ArchiveInterval, "MORDEX_MONITOR_ARCHIVE_INTERVAL")
	setInt(&cfg.Monitor.ArchiveRetentionDays, "MORDEX_MONITOR_ARCHIVE_RETENTION_DAYS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "MORDEX_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "MORDEX_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "MORDEX_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "MORDEX_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "MORDEX_MODE")
	setStr(&cfg.LogLevel, "MORDEX_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
