// Package domain defines the core value objects of the estimation pipeline:
// trade requests, cost breakdowns, profit summaries, and risk assessments.
// All entities are immutable and constructed fresh per estimation request;
// nothing in this package is shared between concurrent estimations.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FeeTier is an AMM pool fee rate expressed in hundredths of a basis point
// per leg (parts per million), matching the Uniswap V3 tier enumeration.
type FeeTier int

const (
	FeeTierLowest  FeeTier = 500   // 0.05%
	FeeTierMedium  FeeTier = 3000  // 0.30%
	FeeTierHighest FeeTier = 10000 // 1.00%
)

// Valid reports whether the fee tier is one of the supported pool tiers.
func (f FeeTier) Valid() bool {
	switch f {
	case FeeTierLowest, FeeTierMedium, FeeTierHighest:
		return true
	}
	return false
}

// Rate returns the single-leg fee fraction (e.g. 3000 -> 0.003).
func (f FeeTier) Rate() decimal.Decimal {
	return decimal.NewFromInt(int64(f)).Div(decimal.NewFromInt(1_000_000))
}

// LiquidityDepth is a qualitative classification of the capital available at
// the selling venue for the requested trade size.
type LiquidityDepth string

const (
	LiquidityLow    LiquidityDepth = "low"
	LiquidityMedium LiquidityDepth = "medium"
	LiquidityHigh   LiquidityDepth = "high"
)

// Valid reports whether the classification is one of the known depths.
// The empty string is also valid and means "not provided"; the live pool
// state fills it in during aggregation.
func (d LiquidityDepth) Valid() bool {
	switch d {
	case "", LiquidityLow, LiquidityMedium, LiquidityHigh:
		return true
	}
	return false
}

// TradeRequest is the immutable input to one estimation: buy Amount of the
// native asset at BuyPrice on the source chain, bridge it, and sell at
// SellPrice on the destination chain. Prices are fiat (USD) per native unit.
type TradeRequest struct {
	Amount    decimal.Decimal
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal
	FeeTier   FeeTier        // zero value means "use the configured default"
	Liquidity LiquidityDepth // empty means "resolve from pool state"
}

// Validate checks every field and returns an error naming the first invalid
// one. Callers must validate before invoking any cost computation.
func (r TradeRequest) Validate() error {
	if !r.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidInput, r.Amount)
	}
	if !r.BuyPrice.IsPositive() {
		return fmt.Errorf("%w: buyPrice must be positive, got %s", ErrInvalidInput, r.BuyPrice)
	}
	if !r.SellPrice.IsPositive() {
		return fmt.Errorf("%w: sellPrice must be positive, got %s", ErrInvalidInput, r.SellPrice)
	}
	if r.FeeTier != 0 && !r.FeeTier.Valid() {
		return fmt.Errorf("%w: feeTier must be one of 500, 3000, 10000, got %d", ErrInvalidInput, r.FeeTier)
	}
	if !r.Liquidity.Valid() {
		return fmt.Errorf("%w: liquidityDepth must be one of low, medium, high, got %q", ErrInvalidInput, r.Liquidity)
	}
	return nil
}

// TradeValueUSD is the fiat notional of the trade at the buy venue.
func (r TradeRequest) TradeValueUSD() decimal.Decimal {
	return r.Amount.Mul(r.BuyPrice)
}
