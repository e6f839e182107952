package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// Completer is the reasoning service surface the AI strategy depends on.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

var _ Strategy = (*Reasoned)(nil)

// Reasoned consults an external reasoning service for the decision. Any
// failure, from transport errors to a malformed reply, falls back wholesale
// to the deterministic rules; the caller never sees an AI error. Even a
// structurally valid EXECUTE is overridden when net profit is not positive.
type Reasoned struct {
	completer Completer
	rules     *RuleBased
	timeout   time.Duration
	logger    *slog.Logger
}

// NewReasoned creates the AI-backed strategy with the given fallback.
func NewReasoned(completer Completer, rules *RuleBased, timeout time.Duration, logger *slog.Logger) *Reasoned {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Reasoned{
		completer: completer,
		rules:     rules,
		timeout:   timeout,
		logger:    logger.With("component", "risk.ai"),
	}
}

// aiResponse is the shape the reasoning service is asked to produce. Fields
// are validated defensively; anything unparseable triggers the fallback.
type aiResponse struct {
	RiskAnalysis *struct {
		GasRisk      string `json:"gasRisk"`
		SlippageRisk string `json:"slippageRisk"`
		MEVRisk      string `json:"mevRisk"`
		TimingRisk   string `json:"timingRisk"`
		ProfitMargin string `json:"profitMargin"`
	} `json:"riskAnalysis"`
	Decision   string  `json:"decision"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Assess asks the reasoning service for a decision, bounded by the configured
// timeout. There are no retries; a second answer from a non-deterministic
// service is not more trustworthy than the first.
func (r *Reasoned) Assess(ctx context.Context, val *domain.Valuation) (domain.RiskAssessment, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.completer.Complete(callCtx, buildPrompt(val))
	if err != nil {
		return r.fallback(ctx, val, fmt.Sprintf("completion failed: %v", err))
	}

	assessment, err := r.parse(raw, val)
	if err != nil {
		return r.fallback(ctx, val, err.Error())
	}

	// Safety floor: an advisory layer may never approve an unprofitable
	// trade, whatever its reasoning says.
	if assessment.Decision == domain.DecisionExecute && !val.Summary.NetProfitUSD.IsPositive() {
		r.logger.WarnContext(ctx, "overriding unprofitable EXECUTE from reasoning service",
			"netProfitUsd", val.Summary.NetProfitUSD)
		assessment.Decision = domain.DecisionSkip
		assessment.Reason = "net profit negative or zero"
		assessment.Confidence = skipConfidence
		assessment.Source = domain.SourceAIFallback
	}

	return assessment, nil
}

// fallback delegates to the deterministic rules and tags the result so
// consumers can see the AI path did not hold.
func (r *Reasoned) fallback(ctx context.Context, val *domain.Valuation, cause string) (domain.RiskAssessment, error) {
	r.logger.WarnContext(ctx, "reasoning service unusable, applying deterministic fallback", "cause", cause)

	assessment, err := r.rules.Assess(ctx, val)
	if err != nil {
		return domain.RiskAssessment{}, err
	}
	assessment.Source = domain.SourceAIFallback
	return assessment, nil
}

// parse validates the raw completion against the response contract. Missing
// risk dimensions are synthesized deterministically rather than treated as
// failure; a missing or unknown decision is a failure.
func (r *Reasoned) parse(raw string, val *domain.Valuation) (domain.RiskAssessment, error) {
	var resp aiResponse
	if err := json.Unmarshal([]byte(extractJSON(raw)), &resp); err != nil {
		return domain.RiskAssessment{}, fmt.Errorf("non-JSON completion: %v", err)
	}

	decision := domain.Decision(strings.ToUpper(strings.TrimSpace(resp.Decision)))
	if decision != domain.DecisionExecute && decision != domain.DecisionSkip {
		return domain.RiskAssessment{}, fmt.Errorf("unknown decision %q", resp.Decision)
	}

	profile, ok := r.parseProfile(resp)
	if !ok {
		profile = r.rules.Score(val)
	}

	confidence := resp.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = r.rules.thresholds.ConfidenceDefault
	}

	reason := strings.TrimSpace(resp.Reason)
	if reason == "" {
		reason = "reasoning service decision"
	}

	return domain.RiskAssessment{
		Profile:    profile,
		Decision:   decision,
		Reason:     reason,
		Confidence: confidence,
		Source:     domain.SourceAI,
	}, nil
}

// parseProfile accepts the AI's risk dimensions only when every field is a
// known value; a partial profile is discarded as a whole.
func (r *Reasoned) parseProfile(resp aiResponse) (domain.RiskProfile, bool) {
	ra := resp.RiskAnalysis
	if ra == nil {
		return domain.RiskProfile{}, false
	}
	for _, level := range []string{ra.GasRisk, ra.SlippageRisk, ra.MEVRisk, ra.TimingRisk} {
		if !domain.ValidRiskLevel(level) {
			return domain.RiskProfile{}, false
		}
	}
	margin := domain.MarginBucket(ra.ProfitMargin)
	switch margin {
	case domain.MarginThin, domain.MarginAcceptable, domain.MarginSafe:
	default:
		return domain.RiskProfile{}, false
	}

	return domain.RiskProfile{
		Gas:      domain.RiskLevel(ra.GasRisk),
		Slippage: domain.RiskLevel(ra.SlippageRisk),
		MEV:      domain.RiskLevel(ra.MEVRisk),
		Timing:   domain.RiskLevel(ra.TimingRisk),
		Margin:   margin,
	}, true
}

// extractJSON strips markdown code fences and surrounding prose, returning
// the first top-level JSON object in the text.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "{"); i >= 0 {
		if j := strings.LastIndex(s, "}"); j > i {
			return s[i : j+1]
		}
	}
	return s
}

// buildPrompt renders the valuation for the reasoning service, together with
// the response contract it must honor.
func buildPrompt(val *domain.Valuation) string {
	var b strings.Builder
	b.WriteString("You are evaluating a cross-chain arbitrage trade. ")
	b.WriteString("Assess its execution risk and decide whether to execute.\n\n")

	payload := map[string]any{
		"summary": val.Summary,
		"breakdown": map[string]any{
			"gasUsd":      val.Breakdown.Gas.USD,
			"swapFeesUsd": val.Breakdown.SwapFees.USD,
			"slippageUsd": val.Breakdown.Slippage.USD,
			"bridgingUsd": val.Breakdown.Bridging.USD,
			"mevUsd":      val.Breakdown.MEV.USD,
		},
		"context": map[string]any{
			"liquidityDepth": val.Context.Liquidity,
			"amountNative":   val.Context.Amount,
		},
	}
	if val.Context.BlockTime > 0 {
		payload["context"].(map[string]any)["destinationBlockTimeSeconds"] = val.Context.BlockTime.Seconds()
	}
	enc, _ := json.MarshalIndent(payload, "", "  ")
	b.Write(enc)

	b.WriteString("\n\nRespond with a single JSON object, no prose:\n")
	b.WriteString(`{"riskAnalysis":{"gasRisk":"LOW|MEDIUM|HIGH","slippageRisk":"LOW|MEDIUM|HIGH",` +
		`"mevRisk":"LOW|MEDIUM|HIGH","timingRisk":"LOW|MEDIUM|HIGH","profitMargin":"thin|acceptable|safe"},` +
		`"decision":"EXECUTE|SKIP","reason":"...","confidence":0.0}`)
	return b.String()
}
