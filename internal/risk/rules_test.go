package risk

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Diyadey08/Mordex/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRules(t *testing.T) *RuleBased {
	t.Helper()
	r, err := NewRuleBased(DefaultThresholds(), testLogger())
	require.NoError(t, err)
	return r
}

// valuationFixture builds a valuation with the figures the rules actually
// read. Costs not named stay zero.
type valuationFixture struct {
	grossUSD    string
	netUSD      string
	gasUSD      string
	slippageUSD string
	spreadPct   string
	amount      string
	liquidity   domain.LiquidityDepth
}

func (f valuationFixture) build() *domain.Valuation {
	if f.gasUSD == "" {
		f.gasUSD = "0"
	}
	if f.slippageUSD == "" {
		f.slippageUSD = "0"
	}
	if f.spreadPct == "" {
		f.spreadPct = "1"
	}
	if f.amount == "" {
		f.amount = "0.01"
	}
	if f.liquidity == "" {
		f.liquidity = domain.LiquidityHigh
	}
	gross := dec(f.grossUSD)
	net := dec(f.netUSD)
	return &domain.Valuation{
		Summary: domain.ProfitSummary{
			Amount:         dec(f.amount),
			GrossProfitUSD: gross,
			TotalCostUSD:   gross.Sub(net),
			NetProfitUSD:   net,
			SpreadPct:      dec(f.spreadPct),
			ShouldExecute:  net.IsPositive(),
		},
		Breakdown: domain.CostBreakdown{
			Gas:      domain.CostItem{USD: dec(f.gasUSD)},
			Slippage: domain.CostItem{USD: dec(f.slippageUSD)},
		},
		Context: domain.RiskContext{
			Liquidity: f.liquidity,
			Amount:    dec(f.amount),
		},
	}
}

func TestRuleBasedDecisionOrder(t *testing.T) {
	rules := newRules(t)

	t.Run("negative net profit skips first", func(t *testing.T) {
		val := valuationFixture{grossUSD: "0.5", netUSD: "-8.95", gasUSD: "9", slippageUSD: "0.1"}.build()

		a, err := rules.Assess(context.Background(), val)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionSkip, a.Decision)
		assert.Equal(t, "net profit negative or zero", a.Reason)
		assert.Equal(t, domain.SourceRules, a.Source)
	})

	t.Run("high gas ratio skips before margin check", func(t *testing.T) {
		val := valuationFixture{grossUSD: "10", netUSD: "3", gasUSD: "6", slippageUSD: "0.1"}.build()

		a, err := rules.Assess(context.Background(), val)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionSkip, a.Decision)
		assert.Equal(t, "gas cost dominates profit", a.Reason)
	})

	t.Run("thin margin with high slippage skips via rule three", func(t *testing.T) {
		// Slippage rates HIGH only in low liquidity above $1.
		val := valuationFixture{
			grossUSD: "10", netUSD: "1.5", gasUSD: "1", slippageUSD: "1.5",
			liquidity: domain.LiquidityLow, amount: "0.01",
		}.build()

		a, err := rules.Assess(context.Background(), val)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionSkip, a.Decision)
		assert.Equal(t, "thin margin with high slippage or MEV risk", a.Reason)
	})

	t.Run("1.50 net with benign risks skips via the safety threshold", func(t *testing.T) {
		// gas/gross = 0.2, high liquidity: rules 1-3 must not fire.
		val := valuationFixture{grossUSD: "10", netUSD: "1.50", gasUSD: "2", slippageUSD: "0.1"}.build()

		a, err := rules.Assess(context.Background(), val)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionSkip, a.Decision)
		assert.Equal(t, "below safety threshold", a.Reason)
	})

	t.Run("exactly two dollars passes the safety threshold", func(t *testing.T) {
		val := valuationFixture{grossUSD: "10", netUSD: "2.00", gasUSD: "1", slippageUSD: "0.1"}.build()

		a, err := rules.Assess(context.Background(), val)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionExecute, a.Decision)
		assert.InDelta(t, 0.75, a.Confidence, 1e-9)
		assert.Equal(t, domain.MarginAcceptable, a.Profile.Margin)
	})

	t.Run("anomalous spread skips", func(t *testing.T) {
		val := valuationFixture{grossUSD: "100", netUSD: "50", gasUSD: "5", spreadPct: "6"}.build()

		a, err := rules.Assess(context.Background(), val)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionSkip, a.Decision)
		assert.Equal(t, "anomalous spread, possible bad data", a.Reason)
	})

	t.Run("large trade in thin liquidity skips", func(t *testing.T) {
		// amount=1, 0.2% spread, $6 gross: profitable but too big for the pool.
		val := valuationFixture{
			grossUSD: "6", netUSD: "4", gasUSD: "0.5", spreadPct: "0.2",
			amount: "1", liquidity: domain.LiquidityLow,
		}.build()

		a, err := rules.Assess(context.Background(), val)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionSkip, a.Decision)
		assert.Equal(t, "trade too large for thin liquidity", a.Reason)
	})

	t.Run("safe margin executes with higher confidence", func(t *testing.T) {
		val := valuationFixture{grossUSD: "50", netUSD: "15", gasUSD: "5", slippageUSD: "0.5"}.build()

		a, err := rules.Assess(context.Background(), val)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionExecute, a.Decision)
		assert.InDelta(t, 0.90, a.Confidence, 1e-9)
		assert.Equal(t, domain.MarginSafe, a.Profile.Margin)
	})
}

func TestRuleBasedScoring(t *testing.T) {
	rules := newRules(t)

	t.Run("gas ratio bands", func(t *testing.T) {
		for _, tc := range []struct {
			gas  string
			want domain.RiskLevel
		}{
			{"2", domain.RiskLow},     // 0.2
			{"4", domain.RiskMedium},  // 0.4
			{"5.1", domain.RiskHigh},  // 0.51
			{"3", domain.RiskLow},     // exactly 0.3 is not above medium
		} {
			val := valuationFixture{grossUSD: "10", netUSD: "20", gasUSD: tc.gas}.build()
			assert.Equal(t, tc.want, rules.Score(val).Gas, "gas = %s", tc.gas)
		}
	})

	t.Run("mev medium on meaningful slippage with modest net", func(t *testing.T) {
		val := valuationFixture{grossUSD: "20", netUSD: "5", gasUSD: "1", slippageUSD: "3"}.build()
		assert.Equal(t, domain.RiskMedium, rules.Score(val).MEV)
	})

	t.Run("timing rates high when net profit is not positive", func(t *testing.T) {
		val := valuationFixture{grossUSD: "10", netUSD: "0", gasUSD: "1"}.build()
		assert.Equal(t, domain.RiskHigh, rules.Score(val).Timing)
	})

	t.Run("margin buckets", func(t *testing.T) {
		for _, tc := range []struct {
			net  string
			want domain.MarginBucket
		}{
			{"1.99", domain.MarginThin},
			{"2", domain.MarginAcceptable},
			{"10", domain.MarginAcceptable},
			{"10.01", domain.MarginSafe},
		} {
			val := valuationFixture{grossUSD: "50", netUSD: tc.net, gasUSD: "1"}.build()
			assert.Equal(t, tc.want, rules.Score(val).Margin, "net = %s", tc.net)
		}
	})
}

func TestThresholdsValidate(t *testing.T) {
	require.NoError(t, DefaultThresholds().Validate())

	th := DefaultThresholds()
	th.GasRatioMedium = th.GasRatioHigh
	assert.Error(t, th.Validate())

	th = DefaultThresholds()
	th.ConfidenceSafe = 1.5
	assert.Error(t, th.Validate())
}
