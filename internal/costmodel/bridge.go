package costmodel

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// BridgingCost computes the relayer protocol cost of moving the trade amount
// across chains. The quote's three components (LP fee, relayer gas fee,
// relayer capital fee) are additive percentages of the bridged amount.
func BridgingCost(amount decimal.Decimal, fees domain.BridgeFees, nativePriceUSD decimal.Decimal) (domain.CostItem, error) {
	if err := requirePositive("amount", amount); err != nil {
		return domain.CostItem{}, err
	}
	if err := requirePositive("nativePriceUsd", nativePriceUSD); err != nil {
		return domain.CostItem{}, err
	}
	if fees.LPFeePct.IsNegative() || fees.RelayerGasFeePct.IsNegative() || fees.RelayerCapitalFeePct.IsNegative() {
		return domain.CostItem{}, fmt.Errorf("%w: bridge fee percentages must be non-negative", domain.ErrInvalidInput)
	}

	native := amount.Mul(fees.TotalPct()).Div(hundred)

	return domain.CostItem{
		Native: native,
		USD:    native.Mul(nativePriceUSD),
	}, nil
}
