package settlement

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// newTestClient binds the contract ABI without touching the network; HTTP RPC
// connections are established lazily, so packing-only tests never dial.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), "http://127.0.0.1:8545", "0x000000000000000000000000000000000000dEaD")
	require.NoError(t, err)
	return c
}

func TestNewClientRejectsBadContractAddress(t *testing.T) {
	_, err := NewClient(context.Background(), "http://127.0.0.1:8545", "not-an-address")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid contract address")
}

func TestExecuteArbCalldata(t *testing.T) {
	t.Run("packs the selector and both wei amounts", func(t *testing.T) {
		c := newTestClient(t)

		data, err := c.ExecuteArbCalldata(
			decimal.RequireFromString("1.5"),
			decimal.RequireFromString("0.002"),
		)
		require.NoError(t, err)
		require.Len(t, data, 4+32+32)

		wantSelector := crypto.Keccak256([]byte("executeArb(uint256,uint256)"))[:4]
		assert.Equal(t, wantSelector, data[:4])

		amountWei, ok := new(big.Int).SetString("1500000000000000000", 10)
		require.True(t, ok)
		minProfitWei, ok := new(big.Int).SetString("2000000000000000", 10)
		require.True(t, ok)
		assert.Equal(t, common.LeftPadBytes(amountWei.Bytes(), 32), data[4:36])
		assert.Equal(t, common.LeftPadBytes(minProfitWei.Bytes(), 32), data[36:68])
	})

	t.Run("packs a zero min profit", func(t *testing.T) {
		c := newTestClient(t)

		data, err := c.ExecuteArbCalldata(decimal.RequireFromString("1"), decimal.Zero)
		require.NoError(t, err)
		require.Len(t, data, 68)
		assert.Equal(t, make([]byte, 32), data[36:68])
	})

	t.Run("rejects a negative amount", func(t *testing.T) {
		c := newTestClient(t)

		_, err := c.ExecuteArbCalldata(decimal.RequireFromString("-1"), decimal.Zero)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("rejects a negative min profit", func(t *testing.T) {
		c := newTestClient(t)

		_, err := c.ExecuteArbCalldata(decimal.RequireFromString("1"), decimal.RequireFromString("-0.1"))
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestToWei(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   string
	}{
		{"whole units", "1.5", "1500000000000000000"},
		{"zero", "0", "0"},
		{"single wei", "0.000000000000000001", "1"},
		{"sub-wei fraction truncates", "0.0000000000000000015", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wei, err := ToWei(decimal.RequireFromString(tt.amount))
			require.NoError(t, err)
			assert.Equal(t, tt.want, wei.String())
		})
	}

	t.Run("rejects negative amounts", func(t *testing.T) {
		_, err := ToWei(decimal.RequireFromString("-0.5"))
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
