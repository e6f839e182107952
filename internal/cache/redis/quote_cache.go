package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// QuoteCache implements domain.QuoteCache using Redis hashes. Prices and fee
// percentages are stored as decimal strings so the cache round-trips them
// exactly. Entries expire after the configured TTL; a stale quote is worse
// than a cache miss.
type QuoteCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewQuoteCache creates a QuoteCache backed by the given Client.
func NewQuoteCache(c *Client, ttl time.Duration) *QuoteCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &QuoteCache{rdb: c.Underlying(), ttl: ttl}
}

func priceKey(asset string) string {
	return "quote:price:" + asset
}

func bridgeKey(asset string) string {
	return "quote:bridge:" + asset
}

// SetNativePrice stores the latest USD price for an asset.
func (qc *QuoteCache) SetNativePrice(ctx context.Context, asset string, usd string, ts time.Time) error {
	key := priceKey(asset)
	fields := map[string]any{
		"usd": usd,
		"ts":  strconv.FormatInt(ts.UnixNano(), 10),
	}

	pipe := qc.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, qc.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set native price %s: %w", asset, err)
	}
	return nil
}

// GetNativePrice retrieves the cached USD price for an asset. It returns
// domain.ErrNotFound when the key does not exist or has expired.
func (qc *QuoteCache) GetNativePrice(ctx context.Context, asset string) (string, time.Time, error) {
	vals, err := qc.rdb.HGetAll(ctx, priceKey(asset)).Result()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("redis: get native price %s: %w", asset, err)
	}
	if len(vals) == 0 {
		return "", time.Time{}, domain.ErrNotFound
	}

	usd, ok := vals["usd"]
	if !ok {
		return "", time.Time{}, domain.ErrNotFound
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("redis: parse price ts %s: %w", asset, err)
	}

	return usd, time.Unix(0, tsNano), nil
}

// SetBridgeFees stores the latest relayer fee quote for an asset.
func (qc *QuoteCache) SetBridgeFees(ctx context.Context, asset string, fees domain.BridgeFees) error {
	key := bridgeKey(asset)
	fields := map[string]any{
		"lp_fee_pct":              fees.LPFeePct.String(),
		"relayer_gas_fee_pct":     fees.RelayerGasFeePct.String(),
		"relayer_capital_fee_pct": fees.RelayerCapitalFeePct.String(),
		"estimated_time_seconds":  strconv.FormatInt(int64(fees.EstimatedTime.Seconds()), 10),
	}

	pipe := qc.rdb.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, qc.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set bridge fees %s: %w", asset, err)
	}
	return nil
}

// GetBridgeFees retrieves the cached relayer fee quote for an asset. It
// returns domain.ErrNotFound when the key does not exist or has expired.
func (qc *QuoteCache) GetBridgeFees(ctx context.Context, asset string) (domain.BridgeFees, error) {
	vals, err := qc.rdb.HGetAll(ctx, bridgeKey(asset)).Result()
	if err != nil {
		return domain.BridgeFees{}, fmt.Errorf("redis: get bridge fees %s: %w", asset, err)
	}
	if len(vals) == 0 {
		return domain.BridgeFees{}, domain.ErrNotFound
	}

	var fees domain.BridgeFees
	for _, f := range []struct {
		field string
		dst   *decimal.Decimal
	}{
		{"lp_fee_pct", &fees.LPFeePct},
		{"relayer_gas_fee_pct", &fees.RelayerGasFeePct},
		{"relayer_capital_fee_pct", &fees.RelayerCapitalFeePct},
	} {
		raw, ok := vals[f.field]
		if !ok {
			return domain.BridgeFees{}, domain.ErrNotFound
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return domain.BridgeFees{}, fmt.Errorf("redis: parse %s for %s: %w", f.field, asset, err)
		}
		*f.dst = d
	}

	if raw, ok := vals["estimated_time_seconds"]; ok {
		secs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.BridgeFees{}, fmt.Errorf("redis: parse estimated time for %s: %w", asset, err)
		}
		fees.EstimatedTime = time.Duration(secs) * time.Second
	}

	return fees, nil
}

// Compile-time interface check.
var _ domain.QuoteCache = (*QuoteCache)(nil)
