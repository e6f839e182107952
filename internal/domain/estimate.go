package domain

import "time"

// Estimate is the persisted envelope for one completed estimation: the
// request, the valuation, and the risk verdict, stamped with an ID and
// creation time.
type Estimate struct {
	ID        string         `json:"id"`
	Request   TradeRequest   `json:"request"`
	Summary   ProfitSummary  `json:"summary"`
	Breakdown CostBreakdown  `json:"breakdown"`
	Risk      RiskAssessment `json:"risk"`
	CreatedAt time.Time      `json:"createdAt"`
}
