package costmodel

import (
	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

var gweiPerNative = decimal.NewFromInt(1_000_000_000)

// MEVProtectionCost computes the premium paid to keep the transaction out of
// the public mempool: a priority fee that scales with trade size up to a cap,
// plus a fixed-rate builder tip. The premium grows monotonically with trade
// size and then flattens once the priority-fee cap is reached.
func (m *Model) MEVProtectionCost(amount, nativePriceUSD decimal.Decimal) (domain.CostItem, error) {
	if err := requirePositive("amount", amount); err != nil {
		return domain.CostItem{}, err
	}
	if err := requirePositive("nativePriceUsd", nativePriceUSD); err != nil {
		return domain.CostItem{}, err
	}

	scaled := amount.Mul(m.params.PriorityFeeSlopeGwei)
	if scaled.GreaterThan(m.params.PriorityFeeCapGwei) {
		scaled = m.params.PriorityFeeCapGwei
	}
	priorityFeeGwei := m.params.PriorityFeeBaseGwei.Add(scaled)

	// gwei price x gas units, divided by 1e9 gwei per native unit.
	priorityFee := priorityFeeGwei.
		Mul(decimal.NewFromUint64(m.params.MEVGasUnits)).
		Div(gweiPerNative)

	builderTip := amount.Mul(m.params.BuilderTipRate)

	native := priorityFee.Add(builderTip)

	return domain.CostItem{
		Native: native,
		USD:    native.Mul(nativePriceUSD),
	}, nil
}
