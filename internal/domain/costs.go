package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostItem is one cost component in both native-asset and fiat units. Native
// is zero for components that are charged directly in fiat terms.
type CostItem struct {
	Native decimal.Decimal `json:"native"`
	USD    decimal.Decimal `json:"usd"`
}

// Add returns the component-wise sum of two cost items.
func (c CostItem) Add(o CostItem) CostItem {
	return CostItem{
		Native: c.Native.Add(o.Native),
		USD:    c.USD.Add(o.USD),
	}
}

// BridgeFees is a relayer protocol fee quote. Each component is a percentage
// of the bridged amount; their sum is the total bridging slippage percentage.
type BridgeFees struct {
	LPFeePct             decimal.Decimal `json:"lpFeePct"`
	RelayerGasFeePct     decimal.Decimal `json:"relayerGasFeePct"`
	RelayerCapitalFeePct decimal.Decimal `json:"relayerCapitalFeePct"`
	EstimatedTime        time.Duration   `json:"-"`
}

// TotalPct returns the total bridging slippage percentage, the sum of the
// three additive fee components.
func (b BridgeFees) TotalPct() decimal.Decimal {
	return b.LPFeePct.Add(b.RelayerGasFeePct).Add(b.RelayerCapitalFeePct)
}

// PoolState is a snapshot of the AMM pool used on the sell side: the spot
// price, the effective execution price for the requested size, and a
// qualitative depth classification.
type PoolState struct {
	SpotPrice      decimal.Decimal
	ExecutionPrice decimal.Decimal
	Liquidity      LiquidityDepth
}

// CostBreakdown is the full cost picture for one estimation. It is owned by
// the profit aggregator for the duration of one request and never mutated
// after construction; if any component fails to resolve, the whole breakdown
// is discarded rather than surfaced partially.
type CostBreakdown struct {
	Gas      CostItem `json:"gas"`
	SwapFees CostItem `json:"swapFees"`
	Slippage CostItem `json:"slippage"` // AMM spot-vs-execution component
	Bridging CostItem `json:"bridging"` // LP + relayer gas + relayer capital fees
	MEV      CostItem `json:"mevProtection"`
}

// TotalUSD is the fiat sum of every cost component.
func (c CostBreakdown) TotalUSD() decimal.Decimal {
	return c.Gas.USD.
		Add(c.SwapFees.USD).
		Add(c.Slippage.USD).
		Add(c.Bridging.USD).
		Add(c.MEV.USD)
}
