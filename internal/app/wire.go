package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/shopspring/decimal"

	s3blob "github.com/Diyadey08/Mordex/internal/blob/s3"
	"github.com/Diyadey08/Mordex/internal/cache/redis"
	"github.com/Diyadey08/Mordex/internal/config"
	"github.com/Diyadey08/Mordex/internal/costmodel"
	"github.com/Diyadey08/Mordex/internal/domain"
	"github.com/Diyadey08/Mordex/internal/engine"
	"github.com/Diyadey08/Mordex/internal/notify"
	"github.com/Diyadey08/Mordex/internal/platform/amm"
	"github.com/Diyadey08/Mordex/internal/platform/bridge"
	"github.com/Diyadey08/Mordex/internal/platform/oracle"
	"github.com/Diyadey08/Mordex/internal/platform/reasoning"
	"github.com/Diyadey08/Mordex/internal/platform/settlement"
	"github.com/Diyadey08/Mordex/internal/profit"
	"github.com/Diyadey08/Mordex/internal/risk"
	"github.com/Diyadey08/Mordex/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application modes
// need to operate. Optional subsystems (persistence, caching, archival,
// settlement) are nil when disabled in configuration; the modes degrade
// accordingly. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	Engine *engine.Engine

	// PriceSource and PoolSource are the live quote surfaces the monitor
	// loop samples to synthesize trade requests.
	PriceSource profit.PriceOracle
	PoolSource  profit.PoolSource

	// Stores and caches
	EstimateStore domain.EstimateStore
	RateLimiter   domain.RateLimiter
	SignalBus     domain.SignalBus

	// Blob storage
	Archiver domain.Archiver

	// Settlement contract
	Settlement *settlement.Client

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Cost model ---
	model, err := costmodel.New(costModelParams(cfg.CostModel))
	if err != nil {
		return nil, nil, fmt.Errorf("wire: cost model: %w", err)
	}

	// --- PostgreSQL ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.EstimateStore = postgres.NewEstimateStore(pgClient.Pool())
	}

	// --- Redis ---
	var quoteCache domain.QuoteCache
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		quoteCache = redis.NewQuoteCache(redisClient, cfg.Redis.QuoteTTL.Duration)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- Cost sources ---
	var priceSource profit.PriceOracle = oracle.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.Timeout.Duration)
	var bridgeSource profit.BridgeQuoter = bridge.NewClient(cfg.Bridge.BaseURL, cfg.Bridge.Timeout.Duration)
	if quoteCache != nil {
		priceSource = oracle.NewCached(priceSource, quoteCache, logger)
		bridgeSource = bridge.NewCached(bridgeSource, quoteCache, cfg.Oracle.Asset, logger)
	}
	poolSource := amm.NewClient(cfg.AMM.BaseURL, cfg.AMM.Timeout.Duration)

	deps.PriceSource = priceSource
	deps.PoolSource = poolSource

	aggregator := profit.NewAggregator(
		model, priceSource, poolSource, bridgeSource,
		cfg.Oracle.Asset, cfg.AMM.Pair, logger,
	)

	// --- Risk classification ---
	rules, err := risk.NewRuleBased(riskThresholds(cfg.Risk), logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: risk rules: %w", err)
	}
	var strategy risk.Strategy = rules
	if cfg.Reasoning.ApiKey != "" {
		completer, err := reasoning.NewClient(
			cfg.Reasoning.BaseURL,
			cfg.Reasoning.ApiKey,
			cfg.Reasoning.Model,
			cfg.Reasoning.Temperature,
			cfg.Reasoning.Timeout.Duration,
		)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: reasoning: %w", err)
		}
		strategy = risk.NewReasoned(completer, rules, cfg.Reasoning.Timeout.Duration, logger)
		logger.InfoContext(ctx, "risk classifier: AI advisory layer enabled",
			slog.String("model", cfg.Reasoning.Model),
		)
	} else {
		logger.InfoContext(ctx, "risk classifier: deterministic rules only (no reasoning api_key)")
	}

	deps.Engine = engine.New(
		aggregator, strategy,
		deps.EstimateStore, deps.SignalBus,
		cfg.Settlement.BlockTime.Duration,
		logger,
	)

	// --- Settlement contract ---
	if cfg.Settlement.Enabled {
		setl, err := settlement.NewClient(ctx, cfg.Settlement.RpcURL, cfg.Settlement.ContractAddress)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: settlement: %w", err)
		}
		closers = append(closers, setl.Close)
		deps.Settlement = setl
	}

	// --- S3 blob storage (estimate archival) ---
	if cfg.S3.Enabled && deps.EstimateStore != nil {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), deps.EstimateStore)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

// costModelParams maps the configuration section onto cost model parameters.
func costModelParams(cfg config.CostModelConfig) costmodel.Params {
	return costmodel.Params{
		GasPriceWei:          new(big.Int).Mul(big.NewInt(cfg.GasPriceGwei), big.NewInt(1_000_000_000)),
		SwapGasUnits:         cfg.SwapGasUnits,
		MEVGasUnits:          cfg.MEVGasUnits,
		PriorityFeeBaseGwei:  decimal.NewFromFloat(cfg.PriorityFeeBaseGwei),
		PriorityFeeCapGwei:   decimal.NewFromFloat(cfg.PriorityFeeCapGwei),
		PriorityFeeSlopeGwei: decimal.NewFromFloat(cfg.PriorityFeeSlopeGwei),
		BuilderTipRate:       decimal.NewFromFloat(cfg.BuilderTipRate),
		DefaultFeeTier:       domain.FeeTier(cfg.DefaultFeeTier),
	}
}

// riskThresholds starts from the built-in defaults and overrides only the
// thresholds the configuration actually sets.
func riskThresholds(cfg config.RiskConfig) risk.Thresholds {
	th := risk.DefaultThresholds()
	overrideDecimal(&th.GasRatioHigh, cfg.GasRatioHigh)
	overrideDecimal(&th.GasRatioMedium, cfg.GasRatioMedium)
	overrideDecimal(&th.SlippageHighUSD, cfg.SlippageHighUSD)
	overrideDecimal(&th.MarginThinUSD, cfg.MarginThinUSD)
	overrideDecimal(&th.MarginSafeUSD, cfg.MarginSafeUSD)
	overrideDecimal(&th.SpreadAnomalousPct, cfg.SpreadAnomalousPct)
	overrideDecimal(&th.LowLiquidityMaxAmount, cfg.LowLiquidityMaxAmount)
	if cfg.ConfidenceSafe > 0 {
		th.ConfidenceSafe = cfg.ConfidenceSafe
	}
	if cfg.ConfidenceDefault > 0 {
		th.ConfidenceDefault = cfg.ConfidenceDefault
	}
	return th
}

func overrideDecimal(dst *decimal.Decimal, v float64) {
	if v > 0 {
		*dst = decimal.NewFromFloat(v)
	}
}
