package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Diyadey08/Mordex/internal/domain"
)

type fakeCompleter struct {
	reply string
	err   error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return f.reply, f.err
}

func newReasoned(t *testing.T, completer Completer) *Reasoned {
	t.Helper()
	return NewReasoned(completer, newRules(t), time.Second, testLogger())
}

const validReply = `{
	"riskAnalysis": {
		"gasRisk": "LOW",
		"slippageRisk": "LOW",
		"mevRisk": "MEDIUM",
		"timingRisk": "LOW",
		"profitMargin": "safe"
	},
	"decision": "EXECUTE",
	"reason": "healthy spread with deep liquidity",
	"confidence": 0.88
}`

func TestReasonedAssess(t *testing.T) {
	profitable := valuationFixture{grossUSD: "50", netUSD: "15", gasUSD: "5", slippageUSD: "0.5"}.build()

	t.Run("accepts a structurally valid reply", func(t *testing.T) {
		r := newReasoned(t, &fakeCompleter{reply: validReply})

		a, err := r.Assess(context.Background(), profitable)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionExecute, a.Decision)
		assert.Equal(t, domain.SourceAI, a.Source)
		assert.Equal(t, "healthy spread with deep liquidity", a.Reason)
		assert.InDelta(t, 0.88, a.Confidence, 1e-9)
		assert.Equal(t, domain.RiskMedium, a.Profile.MEV)
	})

	t.Run("tolerates markdown fences around the JSON", func(t *testing.T) {
		r := newReasoned(t, &fakeCompleter{reply: "```json\n" + validReply + "\n```"})

		a, err := r.Assess(context.Background(), profitable)
		require.NoError(t, err)
		assert.Equal(t, domain.SourceAI, a.Source)
	})

	t.Run("synthesizes missing risk dimensions deterministically", func(t *testing.T) {
		r := newReasoned(t, &fakeCompleter{reply: `{"decision": "EXECUTE", "reason": "looks fine", "confidence": 0.8}`})

		a, err := r.Assess(context.Background(), profitable)
		require.NoError(t, err)
		assert.Equal(t, domain.SourceAI, a.Source)
		assert.Equal(t, newRules(t).Score(profitable), a.Profile)
	})

	t.Run("discards a partially invalid risk profile", func(t *testing.T) {
		r := newReasoned(t, &fakeCompleter{reply: `{
			"riskAnalysis": {"gasRisk": "BANANA", "slippageRisk": "LOW", "mevRisk": "LOW", "timingRisk": "LOW", "profitMargin": "safe"},
			"decision": "EXECUTE", "confidence": 0.8}`})

		a, err := r.Assess(context.Background(), profitable)
		require.NoError(t, err)
		assert.Equal(t, newRules(t).Score(profitable), a.Profile)
	})

	t.Run("falls back on transport failure", func(t *testing.T) {
		r := newReasoned(t, &fakeCompleter{err: errors.New("connection refused")})

		a, err := r.Assess(context.Background(), profitable)
		require.NoError(t, err)
		assert.Equal(t, domain.SourceAIFallback, a.Source)

		want, _ := newRules(t).Assess(context.Background(), profitable)
		assert.Equal(t, want.Decision, a.Decision)
		assert.Equal(t, want.Reason, a.Reason)
	})

	t.Run("falls back on garbage output", func(t *testing.T) {
		r := newReasoned(t, &fakeCompleter{reply: "I think you should probably go for it!"})

		a, err := r.Assess(context.Background(), profitable)
		require.NoError(t, err)
		assert.Equal(t, domain.SourceAIFallback, a.Source)
		assert.Equal(t, domain.DecisionExecute, a.Decision)
	})

	t.Run("falls back on unknown decision value", func(t *testing.T) {
		r := newReasoned(t, &fakeCompleter{reply: `{"decision": "MAYBE", "confidence": 0.9}`})

		a, err := r.Assess(context.Background(), profitable)
		require.NoError(t, err)
		assert.Equal(t, domain.SourceAIFallback, a.Source)
	})

	t.Run("overrides EXECUTE on an unprofitable trade", func(t *testing.T) {
		losing := valuationFixture{grossUSD: "0.5", netUSD: "-8.95", gasUSD: "9"}.build()
		r := newReasoned(t, &fakeCompleter{reply: validReply})

		a, err := r.Assess(context.Background(), losing)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionSkip, a.Decision)
		assert.Equal(t, "net profit negative or zero", a.Reason)
		assert.Equal(t, domain.SourceAIFallback, a.Source)
	})

	t.Run("defaults an out-of-range confidence", func(t *testing.T) {
		r := newReasoned(t, &fakeCompleter{reply: `{"decision": "SKIP", "reason": "too risky", "confidence": 7}`})

		a, err := r.Assess(context.Background(), profitable)
		require.NoError(t, err)
		assert.InDelta(t, 0.75, a.Confidence, 1e-9)
	})
}
