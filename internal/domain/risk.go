package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel is a discrete rating for one risk dimension.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ValidRiskLevel reports whether s is a known risk level.
func ValidRiskLevel(s string) bool {
	switch RiskLevel(s) {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// MarginBucket classifies the net profit into operator-meaningful bands.
type MarginBucket string

const (
	MarginThin       MarginBucket = "thin"
	MarginAcceptable MarginBucket = "acceptable"
	MarginSafe       MarginBucket = "safe"
)

// Decision is the final verdict of the risk classifier.
type Decision string

const (
	DecisionExecute Decision = "EXECUTE"
	DecisionSkip    Decision = "SKIP"
)

// AssessmentSource records which strategy produced the assessment and whether
// the deterministic fallback had to step in.
type AssessmentSource string

const (
	SourceRules      AssessmentSource = "rules"
	SourceAI         AssessmentSource = "ai"
	SourceAIFallback AssessmentSource = "ai+fallback"
)

// RiskProfile holds one rating per risk dimension plus the margin bucket.
type RiskProfile struct {
	Gas      RiskLevel    `json:"gasRisk"`
	Slippage RiskLevel    `json:"slippageRisk"`
	MEV      RiskLevel    `json:"mevRisk"`
	Timing   RiskLevel    `json:"timingRisk"`
	Margin   MarginBucket `json:"profitMargin"`
}

// RiskAssessment is the terminal output of the risk classifier for one
// estimation.
type RiskAssessment struct {
	Profile    RiskProfile      `json:"riskAnalysis"`
	Decision   Decision         `json:"decision"`
	Reason     string           `json:"reason"`
	Confidence float64          `json:"confidence"`
	Source     AssessmentSource `json:"source"`
}

// RiskContext carries the contextual signals that accompany a profit summary
// into risk classification. BlockTime informs only the advisory (AI) layer;
// the deterministic rules do not consume it.
type RiskContext struct {
	Liquidity LiquidityDepth
	Amount    decimal.Decimal // trade size in native units
	BlockTime time.Duration   // destination chain block time, zero if unknown
}
