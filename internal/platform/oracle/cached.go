package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// PriceSource is the underlying oracle surface a Cached wraps.
type PriceSource interface {
	NativePrice(ctx context.Context, asset string) (decimal.Decimal, error)
}

// Cached reads prices through a quote cache. Cache failures degrade to a
// live fetch; only the live source failing fails the lookup.
type Cached struct {
	source PriceSource
	cache  domain.QuoteCache
	logger *slog.Logger
}

// NewCached wraps a price source with the given cache.
func NewCached(source PriceSource, cache domain.QuoteCache, logger *slog.Logger) *Cached {
	return &Cached{
		source: source,
		cache:  cache,
		logger: logger.With("component", "oracle.cache"),
	}
}

// NativePrice returns the cached price when present, otherwise fetches from
// the live source and populates the cache.
func (c *Cached) NativePrice(ctx context.Context, asset string) (decimal.Decimal, error) {
	if usd, _, err := c.cache.GetNativePrice(ctx, asset); err == nil {
		price, perr := decimal.NewFromString(usd)
		if perr == nil && price.IsPositive() {
			return price, nil
		}
		c.logger.WarnContext(ctx, "discarding bad cached price", "asset", asset, "value", usd)
	} else if !errors.Is(err, domain.ErrNotFound) {
		c.logger.WarnContext(ctx, "price cache read failed", "asset", asset, "error", err)
	}

	price, err := c.source.NativePrice(ctx, asset)
	if err != nil {
		return decimal.Zero, fmt.Errorf("oracle: cached price %s: %w", asset, err)
	}

	if err := c.cache.SetNativePrice(ctx, asset, price.String(), time.Now().UTC()); err != nil {
		c.logger.WarnContext(ctx, "price cache write failed", "asset", asset, "error", err)
	}
	return price, nil
}
