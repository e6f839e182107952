package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// QuoteSource is the underlying relayer surface a Cached wraps.
type QuoteSource interface {
	Quote(ctx context.Context, amount decimal.Decimal) (domain.BridgeFees, error)
}

// Cached reads fee quotes through a quote cache. The relayer's percentages
// do not vary much with size over the cache TTL, so one cached quote per
// asset is shared across trade sizes.
type Cached struct {
	source QuoteSource
	cache  domain.QuoteCache
	asset  string
	logger *slog.Logger
}

// NewCached wraps a quote source with the given cache.
func NewCached(source QuoteSource, cache domain.QuoteCache, asset string, logger *slog.Logger) *Cached {
	return &Cached{
		source: source,
		cache:  cache,
		asset:  asset,
		logger: logger.With("component", "bridge.cache"),
	}
}

// Quote returns the cached fee quote when present, otherwise fetches from
// the relayer and populates the cache.
func (c *Cached) Quote(ctx context.Context, amount decimal.Decimal) (domain.BridgeFees, error) {
	if fees, err := c.cache.GetBridgeFees(ctx, c.asset); err == nil {
		return fees, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		c.logger.WarnContext(ctx, "bridge quote cache read failed", "error", err)
	}

	fees, err := c.source.Quote(ctx, amount)
	if err != nil {
		return domain.BridgeFees{}, fmt.Errorf("bridge: cached quote: %w", err)
	}

	if err := c.cache.SetBridgeFees(ctx, c.asset, fees); err != nil {
		c.logger.WarnContext(ctx, "bridge quote cache write failed", "error", err)
	}
	return fees, nil
}
