// Package profit aggregates the individual cost components into a net-profit
// figure for one trade. The five components are fetched concurrently and the
// estimate fails atomically if any of them does; a profit number built on
// incomplete costs is worse than no number.
package profit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Diyadey08/Mordex/internal/costmodel"
	"github.com/Diyadey08/Mordex/internal/domain"
)

// PriceOracle supplies the USD price of the native asset.
type PriceOracle interface {
	NativePrice(ctx context.Context, asset string) (decimal.Decimal, error)
}

// PoolSource supplies the selling venue's pool state for a trade size.
type PoolSource interface {
	PoolState(ctx context.Context, pair string, amount decimal.Decimal) (domain.PoolState, error)
}

// BridgeQuoter supplies the relayer fee quote for bridging an amount.
type BridgeQuoter interface {
	Quote(ctx context.Context, amount decimal.Decimal) (domain.BridgeFees, error)
}

var hundred = decimal.NewFromInt(100)

// Aggregator computes full valuations. It holds no per-request state and is
// safe for concurrent use.
type Aggregator struct {
	model  *costmodel.Model
	oracle PriceOracle
	pools  PoolSource
	bridge BridgeQuoter

	asset string
	pair  string

	logger *slog.Logger
}

// NewAggregator wires the cost model to its upstream sources. asset is the
// oracle symbol for the native asset; pair names the pool on the selling
// venue.
func NewAggregator(
	model *costmodel.Model,
	oracle PriceOracle,
	pools PoolSource,
	bridge BridgeQuoter,
	asset, pair string,
	logger *slog.Logger,
) *Aggregator {
	return &Aggregator{
		model:  model,
		oracle: oracle,
		pools:  pools,
		bridge: bridge,
		asset:  asset,
		pair:   pair,
		logger: logger.With("component", "profit"),
	}
}

// Estimate computes the valuation for one trade request. The native price is
// fetched first because every component converts through it; the five cost
// components then run concurrently and join before any summary math happens.
// Any component failure aborts the whole estimate.
func (a *Aggregator) Estimate(ctx context.Context, req domain.TradeRequest) (*domain.Valuation, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("profit: estimate: %w", err)
	}

	nativePrice, err := a.oracle.NativePrice(ctx, a.asset)
	if err != nil {
		return nil, fmt.Errorf("profit: estimate: %w", err)
	}

	var (
		breakdown domain.CostBreakdown
		pool      domain.PoolState
	)

	// Each goroutine writes a distinct field; the Wait call is the only
	// synchronization needed.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		item, err := a.model.GasCost(nativePrice)
		if err != nil {
			return fmt.Errorf("gas cost: %w", err)
		}
		breakdown.Gas = item
		return nil
	})

	g.Go(func() error {
		tier := a.model.FeeTierOrDefault(req.FeeTier)
		item, err := costmodel.SwapFeeCost(req.Amount, tier, nativePrice)
		if err != nil {
			return fmt.Errorf("swap fee cost: %w", err)
		}
		breakdown.SwapFees = item
		return nil
	})

	g.Go(func() error {
		ps, err := a.pools.PoolState(gctx, a.pair, req.Amount)
		if err != nil {
			return fmt.Errorf("slippage cost: %w", err)
		}
		item, err := costmodel.SlippageCost(req.Amount, ps.SpotPrice, ps.ExecutionPrice)
		if err != nil {
			return fmt.Errorf("slippage cost: %w", err)
		}
		pool = ps
		breakdown.Slippage = item
		return nil
	})

	g.Go(func() error {
		fees, err := a.bridge.Quote(gctx, req.Amount)
		if err != nil {
			return fmt.Errorf("bridging cost: %w", err)
		}
		item, err := costmodel.BridgingCost(req.Amount, fees, nativePrice)
		if err != nil {
			return fmt.Errorf("bridging cost: %w", err)
		}
		breakdown.Bridging = item
		return nil
	})

	g.Go(func() error {
		item, err := a.model.MEVProtectionCost(req.Amount, nativePrice)
		if err != nil {
			return fmt.Errorf("mev protection cost: %w", err)
		}
		breakdown.MEV = item
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("profit: estimate: %w", err)
	}

	summary := summarize(req, breakdown)

	liquidity := req.Liquidity
	if liquidity == "" {
		liquidity = pool.Liquidity
	}

	a.logger.InfoContext(ctx, "estimate computed",
		"amount", req.Amount,
		"grossProfitUsd", summary.GrossProfitUSD,
		"totalCostUsd", summary.TotalCostUSD,
		"netProfitUsd", summary.NetProfitUSD,
		"liquidity", liquidity,
	)

	return &domain.Valuation{
		Summary:   summary,
		Breakdown: breakdown,
		Context: domain.RiskContext{
			Liquidity: liquidity,
			Amount:    req.Amount,
		},
	}, nil
}

// summarize derives the profit figures from a complete breakdown. Pure and
// deterministic.
func summarize(req domain.TradeRequest, breakdown domain.CostBreakdown) domain.ProfitSummary {
	gross := req.Amount.Mul(req.SellPrice.Sub(req.BuyPrice))
	total := breakdown.TotalUSD()
	net := gross.Sub(total)

	tradeValue := req.TradeValueUSD()
	margin := decimal.Zero
	if tradeValue.IsPositive() {
		margin = net.Div(tradeValue).Mul(hundred)
	}

	return domain.ProfitSummary{
		Amount:          req.Amount,
		BuyPrice:        req.BuyPrice,
		SellPrice:       req.SellPrice,
		GrossProfitUSD:  gross,
		TotalCostUSD:    total,
		NetProfitUSD:    net,
		ProfitMarginPct: margin,
		ROIPct:          margin,
		SpreadPct:       domain.Spread(req.BuyPrice, req.SellPrice),
		ShouldExecute:   net.IsPositive(),
	}
}
