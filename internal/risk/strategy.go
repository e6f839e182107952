// Package risk converts a valuation into an EXECUTE/SKIP decision. Two
// strategies implement the same contract: a deterministic rule-based one that
// is always available, and an advisory AI-backed one that must fall back to
// the rules on any failure. The rules are the system of record; the AI layer
// may explain, it may not relax the safety floor.
package risk

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// Strategy assesses one valuation. Implementations must not mutate the
// valuation and must be safe for concurrent use.
type Strategy interface {
	Assess(ctx context.Context, val *domain.Valuation) (domain.RiskAssessment, error)
}

// Thresholds holds every constant the deterministic scoring and decision
// rules compare against. They are configuration rather than embedded magic
// numbers so the classifier can be recalibrated per asset or chain.
type Thresholds struct {
	// GasRatioHigh and GasRatioMedium bound gasCost/grossProfit.
	GasRatioHigh   decimal.Decimal
	GasRatioMedium decimal.Decimal

	// SlippageHighUSD is the slippage cost above which a low-liquidity trade
	// rates HIGH; SlippageRatioMedium bounds slippageCost/grossProfit.
	SlippageHighUSD     decimal.Decimal
	SlippageRatioMedium decimal.Decimal

	// MEVAmountHigh is the trade size above which low liquidity rates HIGH.
	// MEVSlippageUSD and MEVNetProfitUSD together gate the MEDIUM rating.
	MEVAmountHigh   decimal.Decimal
	MEVSlippageUSD  decimal.Decimal
	MEVNetProfitUSD decimal.Decimal

	// TimingRatioHigh and TimingRatioMedium bound gasCost/netProfit.
	TimingRatioHigh   decimal.Decimal
	TimingRatioMedium decimal.Decimal

	// MarginThinUSD and MarginSafeUSD bound the profit-margin buckets.
	MarginThinUSD decimal.Decimal
	MarginSafeUSD decimal.Decimal

	// SpreadAnomalousPct flags a spread as possible bad data.
	SpreadAnomalousPct decimal.Decimal

	// LowLiquidityMaxAmount is the largest trade size allowed in low
	// liquidity.
	LowLiquidityMaxAmount decimal.Decimal

	// ConfidenceSafe and ConfidenceDefault are attached to EXECUTE decisions
	// depending on the margin bucket.
	ConfidenceSafe    float64
	ConfidenceDefault float64
}

// DefaultThresholds returns the reference calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GasRatioHigh:          decimal.NewFromFloat(0.5),
		GasRatioMedium:        decimal.NewFromFloat(0.3),
		SlippageHighUSD:       decimal.NewFromInt(1),
		SlippageRatioMedium:   decimal.NewFromFloat(0.25),
		MEVAmountHigh:         decimal.NewFromFloat(0.1),
		MEVSlippageUSD:        decimal.NewFromInt(2),
		MEVNetProfitUSD:       decimal.NewFromInt(10),
		TimingRatioHigh:       decimal.NewFromFloat(0.5),
		TimingRatioMedium:     decimal.NewFromFloat(0.3),
		MarginThinUSD:         decimal.NewFromInt(2),
		MarginSafeUSD:         decimal.NewFromInt(10),
		SpreadAnomalousPct:    decimal.NewFromInt(5),
		LowLiquidityMaxAmount: decimal.NewFromFloat(0.05),
		ConfidenceSafe:        0.90,
		ConfidenceDefault:     0.75,
	}
}

// Validate checks the threshold set for values that would break the rule
// ordering.
func (t Thresholds) Validate() error {
	if t.GasRatioMedium.GreaterThanOrEqual(t.GasRatioHigh) {
		return fmt.Errorf("risk: gas ratio medium must be below high")
	}
	if t.TimingRatioMedium.GreaterThanOrEqual(t.TimingRatioHigh) {
		return fmt.Errorf("risk: timing ratio medium must be below high")
	}
	if t.MarginThinUSD.GreaterThanOrEqual(t.MarginSafeUSD) {
		return fmt.Errorf("risk: thin margin bound must be below safe bound")
	}
	if !t.SpreadAnomalousPct.IsPositive() {
		return fmt.Errorf("risk: anomalous spread threshold must be positive")
	}
	if !t.LowLiquidityMaxAmount.IsPositive() {
		return fmt.Errorf("risk: low liquidity max amount must be positive")
	}
	if t.ConfidenceSafe <= 0 || t.ConfidenceSafe > 1 || t.ConfidenceDefault <= 0 || t.ConfidenceDefault > 1 {
		return fmt.Errorf("risk: confidence values must be in (0, 1]")
	}
	return nil
}
