package profit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Diyadey08/Mordex/internal/costmodel"
	"github.com/Diyadey08/Mordex/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type fakeOracle struct {
	price decimal.Decimal
	err   error
	calls int
}

func (f *fakeOracle) NativePrice(ctx context.Context, asset string) (decimal.Decimal, error) {
	f.calls++
	return f.price, f.err
}

type fakePools struct {
	state domain.PoolState
	err   error
}

func (f *fakePools) PoolState(ctx context.Context, pair string, amount decimal.Decimal) (domain.PoolState, error) {
	return f.state, f.err
}

type fakeBridge struct {
	fees domain.BridgeFees
	err  error
}

func (f *fakeBridge) Quote(ctx context.Context, amount decimal.Decimal) (domain.BridgeFees, error) {
	return f.fees, f.err
}

func newTestAggregator(t *testing.T, oracle *fakeOracle, pools *fakePools, bridge *fakeBridge) *Aggregator {
	t.Helper()
	model, err := costmodel.New(costmodel.DefaultParams())
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAggregator(model, oracle, pools, bridge, "ETH", "ETH-USDC", logger)
}

func healthySources() (*fakeOracle, *fakePools, *fakeBridge) {
	oracle := &fakeOracle{price: dec("3000")}
	pools := &fakePools{state: domain.PoolState{
		SpotPrice:      dec("3000"),
		ExecutionPrice: dec("2990"),
		Liquidity:      domain.LiquidityHigh,
	}}
	bridge := &fakeBridge{fees: domain.BridgeFees{
		LPFeePct:             dec("0.04"),
		RelayerGasFeePct:     dec("0.05"),
		RelayerCapitalFeePct: dec("0.01"),
	}}
	return oracle, pools, bridge
}

func TestAggregatorEstimate(t *testing.T) {
	t.Run("net profit equals gross minus summed breakdown", func(t *testing.T) {
		oracle, pools, bridge := healthySources()
		agg := newTestAggregator(t, oracle, pools, bridge)

		val, err := agg.Estimate(context.Background(), domain.TradeRequest{
			Amount:    dec("0.01"),
			BuyPrice:  dec("2900"),
			SellPrice: dec("2950"),
		})
		require.NoError(t, err)

		b := val.Breakdown
		// gas $9, swap $0.18, slippage $0.10, bridging $0.03, mev $0.1413.
		assert.True(t, b.Gas.USD.Equal(dec("9")), "gas = %s", b.Gas.USD)
		assert.True(t, b.SwapFees.USD.Equal(dec("0.18")), "swap = %s", b.SwapFees.USD)
		assert.True(t, b.Slippage.USD.Equal(dec("0.1")), "slippage = %s", b.Slippage.USD)
		assert.True(t, b.Bridging.USD.Equal(dec("0.03")), "bridging = %s", b.Bridging.USD)
		assert.True(t, b.MEV.USD.Equal(dec("0.1413")), "mev = %s", b.MEV.USD)

		s := val.Summary
		assert.True(t, s.GrossProfitUSD.Equal(dec("0.5")), "gross = %s", s.GrossProfitUSD)
		assert.True(t, s.TotalCostUSD.Equal(b.TotalUSD()))
		assert.True(t, s.NetProfitUSD.Equal(s.GrossProfitUSD.Sub(s.TotalCostUSD)))
		assert.True(t, s.NetProfitUSD.Equal(dec("-8.9513")), "net = %s", s.NetProfitUSD)
		assert.False(t, s.ShouldExecute)
	})

	t.Run("spread is symmetric and non-negative", func(t *testing.T) {
		oracle, pools, bridge := healthySources()
		agg := newTestAggregator(t, oracle, pools, bridge)

		a, err := agg.Estimate(context.Background(), domain.TradeRequest{
			Amount: dec("0.01"), BuyPrice: dec("2900"), SellPrice: dec("2950"),
		})
		require.NoError(t, err)
		b, err := agg.Estimate(context.Background(), domain.TradeRequest{
			Amount: dec("0.01"), BuyPrice: dec("2950"), SellPrice: dec("2900"),
		})
		require.NoError(t, err)

		assert.True(t, a.Summary.SpreadPct.Equal(b.Summary.SpreadPct))
		assert.False(t, a.Summary.SpreadPct.IsNegative())
		// (2950-2900)/2900*100, roughly 1.72%.
		assert.True(t, a.Summary.SpreadPct.Sub(dec("1.7241")).Abs().LessThan(dec("0.001")),
			"spread = %s", a.Summary.SpreadPct)
	})

	t.Run("resolves liquidity from pool state when not provided", func(t *testing.T) {
		oracle, pools, bridge := healthySources()
		pools.state.Liquidity = domain.LiquidityLow
		agg := newTestAggregator(t, oracle, pools, bridge)

		val, err := agg.Estimate(context.Background(), domain.TradeRequest{
			Amount: dec("1"), BuyPrice: dec("3000"), SellPrice: dec("3006"),
		})
		require.NoError(t, err)
		assert.Equal(t, domain.LiquidityLow, val.Context.Liquidity)
	})

	t.Run("request liquidity overrides pool state", func(t *testing.T) {
		oracle, pools, bridge := healthySources()
		pools.state.Liquidity = domain.LiquidityLow
		agg := newTestAggregator(t, oracle, pools, bridge)

		val, err := agg.Estimate(context.Background(), domain.TradeRequest{
			Amount: dec("1"), BuyPrice: dec("3000"), SellPrice: dec("3006"),
			Liquidity: domain.LiquidityHigh,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.LiquidityHigh, val.Context.Liquidity)
	})

	t.Run("fails atomically when a source fails", func(t *testing.T) {
		for name, setup := range map[string]func(*fakeOracle, *fakePools, *fakeBridge){
			"oracle": func(o *fakeOracle, _ *fakePools, _ *fakeBridge) {
				o.err = domain.ErrUpstream
			},
			"pool": func(_ *fakeOracle, p *fakePools, _ *fakeBridge) {
				p.err = domain.ErrUpstream
			},
			"bridge": func(_ *fakeOracle, _ *fakePools, b *fakeBridge) {
				b.err = domain.ErrUpstream
			},
		} {
			t.Run(name, func(t *testing.T) {
				oracle, pools, bridge := healthySources()
				setup(oracle, pools, bridge)
				agg := newTestAggregator(t, oracle, pools, bridge)

				val, err := agg.Estimate(context.Background(), domain.TradeRequest{
					Amount: dec("0.01"), BuyPrice: dec("2900"), SellPrice: dec("2950"),
				})
				assert.Nil(t, val)
				assert.True(t, errors.Is(err, domain.ErrUpstream), "err = %v", err)
			})
		}
	})

	t.Run("rejects invalid input before touching any source", func(t *testing.T) {
		oracle, pools, bridge := healthySources()
		agg := newTestAggregator(t, oracle, pools, bridge)

		_, err := agg.Estimate(context.Background(), domain.TradeRequest{
			Amount: dec("-1"), BuyPrice: dec("2900"), SellPrice: dec("2950"),
		})
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		assert.Zero(t, oracle.calls)
	})

	t.Run("deterministic across repeated calls", func(t *testing.T) {
		oracle, pools, bridge := healthySources()
		agg := newTestAggregator(t, oracle, pools, bridge)
		req := domain.TradeRequest{
			Amount: dec("0.5"), BuyPrice: dec("2900"), SellPrice: dec("2950"),
		}

		first, err := agg.Estimate(context.Background(), req)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := agg.Estimate(context.Background(), req)
			require.NoError(t, err)
			assert.True(t, again.Summary.NetProfitUSD.Equal(first.Summary.NetProfitUSD))
		}
	})
}
