package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// Event types emitted by the estimation pipeline.
const (
	EventOpportunity = "opportunity" // EXECUTE decision on a monitored pair
	EventError       = "error"       // upstream source or settlement failure
	EventStatus      = "status"      // service lifecycle changes
)

// NotifyDecision formats a completed estimate and forwards it under the
// opportunity event type. Only EXECUTE decisions are delivered; SKIP outcomes
// are the steady state and would drown out actionable alerts.
func (n *Notifier) NotifyDecision(ctx context.Context, est *domain.Estimate) error {
	if est.Risk.Decision != domain.DecisionExecute {
		return nil
	}

	title := fmt.Sprintf("Arbitrage opportunity: net $%s", est.Summary.NetProfitUSD.StringFixed(4))

	var b strings.Builder
	fmt.Fprintf(&b, "Amount: %s @ buy %s / sell %s\n",
		est.Request.Amount.String(), est.Request.BuyPrice.String(), est.Request.SellPrice.String())
	fmt.Fprintf(&b, "Gross: $%s  Costs: $%s  Margin: %s%%\n",
		est.Summary.GrossProfitUSD.StringFixed(4),
		est.Summary.TotalCostUSD.StringFixed(4),
		est.Summary.ProfitMarginPct.StringFixed(2))
	fmt.Fprintf(&b, "Risk: %s (confidence %.2f, %s)\n",
		est.Risk.Decision, est.Risk.Confidence, est.Risk.Source)
	fmt.Fprintf(&b, "Reason: %s", est.Risk.Reason)

	return n.Notify(ctx, EventOpportunity, title, b.String())
}

// NotifyError reports an operational failure, such as a cost source outage
// observed by the monitor loop.
func (n *Notifier) NotifyError(ctx context.Context, source string, err error) error {
	title := fmt.Sprintf("Estimation failure: %s", source)
	return n.Notify(ctx, EventError, title, err.Error())
}
