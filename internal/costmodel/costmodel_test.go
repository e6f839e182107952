package costmodel

import (
	"math/big"
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

func TestGasCost(t *testing.T) {
	t.Run("converts wei exactly", func(t *testing.T) {
		// 20 gwei x 150k gas = 0.003 native.
		gasPrice := new(big.Int).Mul(big.NewInt(20), big.NewInt(1_000_000_000))

		item, err := GasCost(gasPrice, 150_000, dec("3000"))
		require.NoError(t, err)

		assert.True(t, item.Native.Equal(dec("0.003")), "native = %s", item.Native)
		assert.True(t, item.USD.Equal(dec("9")), "usd = %s", item.USD)
	})

	t.Run("no float rounding on large gas prices", func(t *testing.T) {
		// A wei figure that a float64 cannot represent exactly.
		gasPrice, ok := new(big.Int).SetString("123456789123456789", 10)
		require.True(t, ok)

		item, err := GasCost(gasPrice, 1_000_000, dec("1"))
		require.NoError(t, err)

		// 123456789123456789 * 1e6 wei = 123456.789123456789 native, exact.
		assert.Equal(t, "123456.789123456789", item.Native.String())
	})

	t.Run("rejects bad inputs", func(t *testing.T) {
		_, err := GasCost(nil, 150_000, dec("3000"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = GasCost(big.NewInt(-1), 150_000, dec("3000"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = GasCost(big.NewInt(1), 0, dec("3000"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		_, err = GasCost(big.NewInt(1), 21_000, decimal.Zero)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSwapFeeCost(t *testing.T) {
	tests := []struct {
		name       string
		amount     string
		tier       domain.FeeTier
		price      string
		wantNative string
		wantUSD    string
	}{
		{"medium tier both legs", "1", domain.FeeTierMedium, "3000", "0.006", "18"},
		{"lowest tier", "2", domain.FeeTierLowest, "3000", "0.002", "6"},
		{"highest tier", "0.5", domain.FeeTierHighest, "2000", "0.01", "20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := SwapFeeCost(dec(tt.amount), tt.tier, dec(tt.price))
			require.NoError(t, err)
			assert.True(t, item.Native.Equal(dec(tt.wantNative)), "native = %s", item.Native)
			assert.True(t, item.USD.Equal(dec(tt.wantUSD)), "usd = %s", item.USD)
		})
	}

	t.Run("rejects unknown tier", func(t *testing.T) {
		_, err := SwapFeeCost(dec("1"), domain.FeeTier(1234), dec("3000"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := SwapFeeCost(decimal.Zero, domain.FeeTierMedium, dec("3000"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestSlippageCost(t *testing.T) {
	t.Run("charges spot minus execution", func(t *testing.T) {
		item, err := SlippageCost(dec("0.5"), dec("3000"), dec("2990"))
		require.NoError(t, err)
		assert.True(t, item.USD.Equal(dec("5")), "usd = %s", item.USD)
	})

	t.Run("favorable execution yields zero, not a rebate", func(t *testing.T) {
		item, err := SlippageCost(dec("0.5"), dec("3000"), dec("3010"))
		require.NoError(t, err)
		assert.True(t, item.USD.IsZero(), "usd = %s", item.USD)
		assert.True(t, item.Native.IsZero())
	})

	t.Run("never negative for any price ordering", func(t *testing.T) {
		prices := []string{"2900", "3000", "3100"}
		for _, spot := range prices {
			for _, exec := range prices {
				item, err := SlippageCost(dec("1"), dec(spot), dec(exec))
				require.NoError(t, err)
				assert.False(t, item.USD.IsNegative(), "spot=%s exec=%s usd=%s", spot, exec, item.USD)
			}
		}
	})
}

func TestBridgingCost(t *testing.T) {
	fees := domain.BridgeFees{
		LPFeePct:             dec("0.04"),
		RelayerGasFeePct:     dec("0.05"),
		RelayerCapitalFeePct: dec("0.01"),
	}

	t.Run("sums the three components", func(t *testing.T) {
		assert.True(t, fees.TotalPct().Equal(dec("0.1")))

		item, err := BridgingCost(dec("1"), fees, dec("3000"))
		require.NoError(t, err)
		assert.True(t, item.Native.Equal(dec("0.001")), "native = %s", item.Native)
		assert.True(t, item.USD.Equal(dec("3")), "usd = %s", item.USD)
	})

	t.Run("rejects negative fee components", func(t *testing.T) {
		bad := fees
		bad.LPFeePct = dec("-0.01")
		_, err := BridgingCost(dec("1"), bad, dec("3000"))
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestMEVProtectionCost(t *testing.T) {
	model, err := New(DefaultParams())
	require.NoError(t, err)

	t.Run("small trade below the cap", func(t *testing.T) {
		// priority fee = (2 + 0.01*10) gwei x 21k / 1e9 = 0.0000441 native,
		// tip = 0.01 x 0.0003 = 0.000003 native.
		item, err := model.MEVProtectionCost(dec("0.01"), dec("3000"))
		require.NoError(t, err)
		assert.True(t, item.Native.Equal(dec("0.0000471")), "native = %s", item.Native)
		assert.True(t, item.USD.Equal(dec("0.1413")), "usd = %s", item.USD)
	})

	t.Run("large trade hits the priority fee cap", func(t *testing.T) {
		// scaled part 1*10 = 10 gwei, capped at 3: fee = 5 gwei x 21k / 1e9.
		item, err := model.MEVProtectionCost(dec("1"), dec("3000"))
		require.NoError(t, err)
		assert.True(t, item.Native.Equal(dec("0.000405")), "native = %s", item.Native)
	})

	t.Run("monotonically increasing with trade size", func(t *testing.T) {
		sizes := []string{"0.01", "0.1", "0.3", "1", "5"}
		prev := decimal.Zero
		for _, s := range sizes {
			item, err := model.MEVProtectionCost(dec(s), dec("3000"))
			require.NoError(t, err)
			assert.True(t, item.USD.GreaterThan(prev), "size %s: usd %s should exceed %s", s, item.USD, prev)
			prev = item.USD
		}
	})
}

func TestParamsValidate(t *testing.T) {
	p := DefaultParams()
	require.NoError(t, p.Validate())

	p.DefaultFeeTier = domain.FeeTier(42)
	assert.Error(t, p.Validate())

	p = DefaultParams()
	p.GasPriceWei = nil
	assert.Error(t, p.Validate())
}
