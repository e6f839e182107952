package risk

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// skipConfidence is attached to deterministic SKIP decisions. The rules are
// exact comparisons, so a skip carries more certainty than an execute.
const skipConfidence = 0.95

var _ Strategy = (*RuleBased)(nil)

// RuleBased is the deterministic strategy. It never fails and never consults
// anything outside the valuation.
type RuleBased struct {
	thresholds Thresholds
	logger     *slog.Logger
}

// NewRuleBased creates the deterministic strategy.
func NewRuleBased(thresholds Thresholds, logger *slog.Logger) (*RuleBased, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &RuleBased{
		thresholds: thresholds,
		logger:     logger.With("component", "risk.rules"),
	}, nil
}

// Assess scores the risk dimensions and runs the ordered decision rules.
// The error return exists only to satisfy the Strategy contract.
func (r *RuleBased) Assess(ctx context.Context, val *domain.Valuation) (domain.RiskAssessment, error) {
	profile := r.Score(val)
	assessment := r.decide(val, profile)
	assessment.Source = domain.SourceRules

	r.logger.DebugContext(ctx, "rule-based assessment",
		"decision", assessment.Decision,
		"reason", assessment.Reason,
		"margin", profile.Margin,
	)
	return assessment, nil
}

// Score rates each risk dimension from the valuation. The same scoring feeds
// both strategies, so an AI response with missing dimensions can be completed
// deterministically.
func (r *RuleBased) Score(val *domain.Valuation) domain.RiskProfile {
	th := r.thresholds
	s := val.Summary
	b := val.Breakdown

	gross := s.GrossProfitUSD
	net := s.NetProfitUSD
	liquidity := val.Context.Liquidity

	return domain.RiskProfile{
		Gas:      ratioLevel(b.Gas.USD, gross, th.GasRatioHigh, th.GasRatioMedium),
		Slippage: r.slippageLevel(b.Slippage.USD, gross, liquidity),
		MEV:      r.mevLevel(val.Context.Amount, b.Slippage.USD, net, liquidity),
		Timing:   ratioLevel(b.Gas.USD, net, th.TimingRatioHigh, th.TimingRatioMedium),
		Margin:   r.marginBucket(net),
	}
}

// ratioLevel rates cost/base against the high and medium bounds. A
// non-positive base means the cost dominates trivially and rates HIGH.
func ratioLevel(cost, base, high, medium decimal.Decimal) domain.RiskLevel {
	if !base.IsPositive() {
		return domain.RiskHigh
	}
	ratio := cost.Div(base)
	switch {
	case ratio.GreaterThan(high):
		return domain.RiskHigh
	case ratio.GreaterThan(medium):
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func (r *RuleBased) slippageLevel(slippageUSD, grossUSD decimal.Decimal, liquidity domain.LiquidityDepth) domain.RiskLevel {
	if liquidity == domain.LiquidityLow && slippageUSD.GreaterThan(r.thresholds.SlippageHighUSD) {
		return domain.RiskHigh
	}
	if grossUSD.IsPositive() && slippageUSD.Div(grossUSD).GreaterThan(r.thresholds.SlippageRatioMedium) {
		return domain.RiskMedium
	}
	return domain.RiskLow
}

func (r *RuleBased) mevLevel(amount, slippageUSD, netUSD decimal.Decimal, liquidity domain.LiquidityDepth) domain.RiskLevel {
	if amount.GreaterThan(r.thresholds.MEVAmountHigh) && liquidity == domain.LiquidityLow {
		return domain.RiskHigh
	}
	if slippageUSD.GreaterThan(r.thresholds.MEVSlippageUSD) && netUSD.LessThan(r.thresholds.MEVNetProfitUSD) {
		return domain.RiskMedium
	}
	return domain.RiskLow
}

func (r *RuleBased) marginBucket(netUSD decimal.Decimal) domain.MarginBucket {
	switch {
	case netUSD.LessThan(r.thresholds.MarginThinUSD):
		return domain.MarginThin
	case netUSD.GreaterThan(r.thresholds.MarginSafeUSD):
		return domain.MarginSafe
	default:
		return domain.MarginAcceptable
	}
}

// decide runs the fixed-order rules; the first matching rule wins. The order
// is part of the contract, not an implementation detail.
func (r *RuleBased) decide(val *domain.Valuation, profile domain.RiskProfile) domain.RiskAssessment {
	th := r.thresholds
	s := val.Summary

	skip := func(reason string) domain.RiskAssessment {
		return domain.RiskAssessment{
			Profile:    profile,
			Decision:   domain.DecisionSkip,
			Reason:     reason,
			Confidence: skipConfidence,
		}
	}

	switch {
	case !s.NetProfitUSD.IsPositive():
		return skip("net profit negative or zero")
	case profile.Gas == domain.RiskHigh:
		return skip("gas cost dominates profit")
	case profile.Margin == domain.MarginThin &&
		(profile.Slippage == domain.RiskHigh || profile.MEV == domain.RiskHigh):
		return skip("thin margin with high slippage or MEV risk")
	case s.NetProfitUSD.LessThan(th.MarginThinUSD):
		return skip("below safety threshold")
	case s.SpreadPct.GreaterThan(th.SpreadAnomalousPct):
		return skip("anomalous spread, possible bad data")
	case val.Context.Liquidity == domain.LiquidityLow &&
		val.Context.Amount.GreaterThan(th.LowLiquidityMaxAmount):
		return skip("trade too large for thin liquidity")
	}

	confidence := th.ConfidenceDefault
	if profile.Margin == domain.MarginSafe {
		confidence = th.ConfidenceSafe
	}
	return domain.RiskAssessment{
		Profile:    profile,
		Decision:   domain.DecisionExecute,
		Reason:     "profitable within risk limits",
		Confidence: confidence,
	}
}
