package costmodel

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// GasCost computes the transaction gas cost for one swap. The wei
// multiplication is exact integer arithmetic; only the final fiat conversion
// passes through decimal floating point.
func (m *Model) GasCost(nativePriceUSD decimal.Decimal) (domain.CostItem, error) {
	return GasCost(m.params.GasPriceWei, m.params.SwapGasUnits, nativePriceUSD)
}

// GasCost converts gasPriceWei x gasUnits into native units and fiat.
func GasCost(gasPriceWei *big.Int, gasUnits uint64, nativePriceUSD decimal.Decimal) (domain.CostItem, error) {
	if gasPriceWei == nil || gasPriceWei.Sign() <= 0 {
		return domain.CostItem{}, fmt.Errorf("%w: gas price must be positive", domain.ErrInvalidInput)
	}
	if gasUnits == 0 {
		return domain.CostItem{}, fmt.Errorf("%w: gas units must be positive", domain.ErrInvalidInput)
	}
	if err := requirePositive("nativePriceUsd", nativePriceUSD); err != nil {
		return domain.CostItem{}, err
	}

	totalWei := new(big.Int).Mul(gasPriceWei, new(big.Int).SetUint64(gasUnits))
	native := weiPerNative(totalWei)

	return domain.CostItem{
		Native: native,
		USD:    native.Mul(nativePriceUSD),
	}, nil
}
