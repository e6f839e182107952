package domain

import "github.com/shopspring/decimal"

// ProfitSummary is the aggregated economic outcome of one estimation.
//
// ProfitMarginPct and ROIPct share the same formula (net / trade value x 100)
// but remain distinct fields for API compatibility with existing consumers.
// ShouldExecute reflects only net profitability; the risk classifier may
// still override the final decision to SKIP.
type ProfitSummary struct {
	Amount    decimal.Decimal `json:"amount"`
	BuyPrice  decimal.Decimal `json:"buyPrice"`
	SellPrice decimal.Decimal `json:"sellPrice"`

	GrossProfitUSD  decimal.Decimal `json:"grossProfitUsd"`
	TotalCostUSD    decimal.Decimal `json:"totalCostUsd"`
	NetProfitUSD    decimal.Decimal `json:"netProfitUsd"`
	ProfitMarginPct decimal.Decimal `json:"profitMarginPct"`
	ROIPct          decimal.Decimal `json:"roiPct"`
	SpreadPct       decimal.Decimal `json:"spreadPct"`
	ShouldExecute   bool            `json:"shouldExecute"`
}

// Spread returns the relative price difference between two venues as a
// percentage. It is symmetric in its arguments and always non-negative.
func Spread(a, b decimal.Decimal) decimal.Decimal {
	lo, hi := a, b
	if lo.GreaterThan(hi) {
		lo, hi = hi, lo
	}
	if lo.IsZero() {
		return decimal.Zero
	}
	return hi.Sub(lo).Div(lo).Mul(decimal.NewFromInt(100))
}

// Valuation bundles everything the risk classifier needs about one
// estimation: the profit summary, the underlying cost breakdown, and the
// contextual risk signals resolved during aggregation.
type Valuation struct {
	Summary   ProfitSummary
	Breakdown CostBreakdown
	Context   RiskContext
}
