package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Diyadey08/Mordex/internal/domain"
	"github.com/Diyadey08/Mordex/internal/risk"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeAggregator struct {
	val   *domain.Valuation
	err   error
	calls int
}

func (f *fakeAggregator) Estimate(ctx context.Context, req domain.TradeRequest) (*domain.Valuation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	v := *f.val
	return &v, nil
}

type fakeStore struct {
	domain.EstimateStore
	inserted []domain.Estimate
	err      error
}

func (f *fakeStore) Insert(ctx context.Context, est domain.Estimate) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, est)
	return nil
}

type fakeBus struct {
	published [][]byte
	err       error
}

func (f *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, payload)
	return nil
}

func (f *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	return nil, errors.New("not implemented")
}

func profitableValuation() *domain.Valuation {
	return &domain.Valuation{
		Summary: domain.ProfitSummary{
			Amount:         dec("0.01"),
			GrossProfitUSD: dec("50"),
			TotalCostUSD:   dec("35"),
			NetProfitUSD:   dec("15"),
			SpreadPct:      dec("1.7"),
			ShouldExecute:  true,
		},
		Breakdown: domain.CostBreakdown{
			Gas: domain.CostItem{USD: dec("5")},
		},
		Context: domain.RiskContext{
			Liquidity: domain.LiquidityHigh,
			Amount:    dec("0.01"),
		},
	}
}

func newTestEngine(t *testing.T, agg Aggregator, store domain.EstimateStore, bus domain.SignalBus) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rules, err := risk.NewRuleBased(risk.DefaultThresholds(), logger)
	require.NoError(t, err)
	return New(agg, rules, store, bus, 12*time.Second, logger)
}

func TestEngineDecide(t *testing.T) {
	req := domain.TradeRequest{Amount: dec("0.01"), BuyPrice: dec("2900"), SellPrice: dec("2950")}

	t.Run("persists and broadcasts a completed decision", func(t *testing.T) {
		agg := &fakeAggregator{val: profitableValuation()}
		store := &fakeStore{}
		bus := &fakeBus{}
		eng := newTestEngine(t, agg, store, bus)

		est, err := eng.Decide(context.Background(), req)
		require.NoError(t, err)

		assert.NotEmpty(t, est.ID)
		assert.Equal(t, domain.DecisionExecute, est.Risk.Decision)
		assert.False(t, est.CreatedAt.IsZero())

		require.Len(t, store.inserted, 1)
		assert.Equal(t, est.ID, store.inserted[0].ID)

		require.Len(t, bus.published, 1)
		var announced domain.Estimate
		require.NoError(t, json.Unmarshal(bus.published[0], &announced))
		assert.Equal(t, est.ID, announced.ID)
	})

	t.Run("fails fast when aggregation fails", func(t *testing.T) {
		agg := &fakeAggregator{err: domain.ErrUpstream}
		store := &fakeStore{}
		eng := newTestEngine(t, agg, store, &fakeBus{})

		est, err := eng.Decide(context.Background(), req)
		assert.Nil(t, est)
		assert.True(t, errors.Is(err, domain.ErrUpstream))
		assert.Empty(t, store.inserted)
	})

	t.Run("persistence failure does not fail the request", func(t *testing.T) {
		agg := &fakeAggregator{val: profitableValuation()}
		store := &fakeStore{err: errors.New("connection reset")}
		bus := &fakeBus{err: errors.New("connection reset")}
		eng := newTestEngine(t, agg, store, bus)

		est, err := eng.Decide(context.Background(), req)
		require.NoError(t, err)
		assert.NotNil(t, est)
	})

	t.Run("works without store and bus", func(t *testing.T) {
		agg := &fakeAggregator{val: profitableValuation()}
		eng := newTestEngine(t, agg, nil, nil)

		est, err := eng.Decide(context.Background(), req)
		require.NoError(t, err)
		assert.NotNil(t, est)
	})
}
