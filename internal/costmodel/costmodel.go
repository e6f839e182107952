// Package costmodel implements the pure cost functions of the estimation
// pipeline: gas, swap fees, slippage, bridging, and MEV protection. Every
// function is side-effect free and deterministic; all pricing constants come
// from Params so the model can be exercised in tests without network access.
package costmodel

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// Params holds the fixed network and protocol constants the cost functions
// operate on. The model performs no calibration; these are configuration,
// not learned values.
type Params struct {
	// GasPriceWei is the assumed gas price on the execution chain.
	GasPriceWei *big.Int
	// SwapGasUnits is the gas consumed by one round-trip swap transaction.
	SwapGasUnits uint64
	// MEVGasUnits is the fixed gas figure the priority-fee premium is quoted
	// against.
	MEVGasUnits uint64
	// PriorityFeeBaseGwei is the floor of the MEV priority fee in gwei.
	PriorityFeeBaseGwei decimal.Decimal
	// PriorityFeeCapGwei caps the size-scaled part of the priority fee.
	PriorityFeeCapGwei decimal.Decimal
	// PriorityFeeSlopeGwei scales the priority fee with trade size
	// (gwei added per native unit traded).
	PriorityFeeSlopeGwei decimal.Decimal
	// BuilderTipRate is the builder tip as a fraction of trade value.
	BuilderTipRate decimal.Decimal
	// DefaultFeeTier is used when a request does not name a pool tier.
	DefaultFeeTier domain.FeeTier
}

// DefaultParams returns the reference constants: 20 gwei gas, 150k gas per
// swap, 2 gwei base priority fee capped at +3 gwei, and a 0.03% builder tip.
func DefaultParams() Params {
	return Params{
		GasPriceWei:          new(big.Int).Mul(big.NewInt(20), big.NewInt(1_000_000_000)),
		SwapGasUnits:         150_000,
		MEVGasUnits:          21_000,
		PriorityFeeBaseGwei:  decimal.NewFromInt(2),
		PriorityFeeCapGwei:   decimal.NewFromInt(3),
		PriorityFeeSlopeGwei: decimal.NewFromInt(10),
		BuilderTipRate:       decimal.NewFromFloat(0.0003),
		DefaultFeeTier:       domain.FeeTierMedium,
	}
}

// Validate checks the parameter set for obviously broken values.
func (p Params) Validate() error {
	if p.GasPriceWei == nil || p.GasPriceWei.Sign() <= 0 {
		return fmt.Errorf("costmodel: gas price must be positive")
	}
	if p.SwapGasUnits == 0 {
		return fmt.Errorf("costmodel: swap gas units must be positive")
	}
	if p.MEVGasUnits == 0 {
		return fmt.Errorf("costmodel: mev gas units must be positive")
	}
	if !p.DefaultFeeTier.Valid() {
		return fmt.Errorf("costmodel: default fee tier %d is not a known tier", p.DefaultFeeTier)
	}
	return nil
}

// Model evaluates the individual cost components for a trade. It holds only
// immutable parameters and is safe for concurrent use.
type Model struct {
	params Params
}

// New creates a Model with the given parameters.
func New(params Params) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Model{params: params}, nil
}

// Params returns the model's parameter set.
func (m *Model) Params() Params {
	return m.params
}

// FeeTierOrDefault resolves the effective fee tier for a request.
func (m *Model) FeeTierOrDefault(tier domain.FeeTier) domain.FeeTier {
	if tier == 0 {
		return m.params.DefaultFeeTier
	}
	return tier
}

// weiPerNative converts an exact wei total into native units without losing
// precision: decimal carries the full integer with a -18 exponent.
func weiPerNative(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, -18)
}

// requirePositive rejects non-positive decimal inputs with a named error.
func requirePositive(name string, v decimal.Decimal) error {
	if !v.IsPositive() {
		return fmt.Errorf("%w: %s must be positive, got %s", domain.ErrInvalidInput, name, v)
	}
	return nil
}
