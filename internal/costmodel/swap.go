package costmodel

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// two is the leg multiplier: the pool fee is charged on both the buy and the
// sell leg of the round trip.
var two = decimal.NewFromInt(2)

// SwapFeeCost computes the AMM pool fee for the full round trip. The
// effective rate is twice the tier's single-leg rate.
func SwapFeeCost(amount decimal.Decimal, tier domain.FeeTier, nativePriceUSD decimal.Decimal) (domain.CostItem, error) {
	if err := requirePositive("amount", amount); err != nil {
		return domain.CostItem{}, err
	}
	if err := requirePositive("nativePriceUsd", nativePriceUSD); err != nil {
		return domain.CostItem{}, err
	}
	if !tier.Valid() {
		return domain.CostItem{}, fmt.Errorf("%w: fee tier must be one of 500, 3000, 10000, got %d", domain.ErrInvalidInput, tier)
	}

	effectiveRate := tier.Rate().Mul(two)
	native := amount.Mul(effectiveRate)

	return domain.CostItem{
		Native: native,
		USD:    native.Mul(nativePriceUSD),
	}, nil
}

// SlippageCost computes the fiat cost of executing below spot. A favorable
// execution price yields zero, never a rebate.
func SlippageCost(amount, spotPrice, executionPrice decimal.Decimal) (domain.CostItem, error) {
	if err := requirePositive("amount", amount); err != nil {
		return domain.CostItem{}, err
	}
	if err := requirePositive("spotPrice", spotPrice); err != nil {
		return domain.CostItem{}, err
	}
	if err := requirePositive("executionPrice", executionPrice); err != nil {
		return domain.CostItem{}, err
	}

	usd := amount.Mul(spotPrice.Sub(executionPrice))
	if usd.IsNegative() {
		usd = decimal.Zero
	}

	return domain.CostItem{
		Native: usd.Div(spotPrice),
		USD:    usd,
	}, nil
}
