package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Diyadey08/Mordex/internal/domain"
)

type fakeSettlement struct {
	balance  decimal.Decimal
	count    uint64
	calldata []byte
	err      error

	amount    decimal.Decimal
	minProfit decimal.Decimal
}

func (f *fakeSettlement) Balance(ctx context.Context, account string) (decimal.Decimal, error) {
	return f.balance, f.err
}

func (f *fakeSettlement) TransactionCount(ctx context.Context) (uint64, error) {
	return f.count, f.err
}

func (f *fakeSettlement) ExecuteArbCalldata(amount, minProfit decimal.Decimal) ([]byte, error) {
	f.amount = amount
	f.minProfit = minProfit
	return f.calldata, f.err
}

func doCalldata(t *testing.T, reader *fakeSettlement, query string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewSettlementHandler(reader, testLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/settlement/calldata"+query, nil)
	rec := httptest.NewRecorder()
	h.Calldata(rec, req)
	return rec
}

func TestSettlementCalldata(t *testing.T) {
	t.Run("returns hex calldata with the parsed amounts", func(t *testing.T) {
		reader := &fakeSettlement{calldata: []byte{0xde, 0xad, 0xbe, 0xef}}
		rec := doCalldata(t, reader, "?amount=1.5&minProfit=0.002")

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Amount    string `json:"amount"`
			MinProfit string `json:"minProfit"`
			Calldata  string `json:"calldata"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "0xdeadbeef", resp.Calldata)
		assert.Equal(t, "1.5", resp.Amount)
		assert.Equal(t, "0.002", resp.MinProfit)
		assert.Equal(t, "1.5", reader.amount.String())
		assert.Equal(t, "0.002", reader.minProfit.String())
	})

	t.Run("defaults min profit to zero", func(t *testing.T) {
		reader := &fakeSettlement{calldata: []byte{0x01}}
		rec := doCalldata(t, reader, "?amount=1")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, reader.minProfit.IsZero())
	})

	t.Run("rejects invalid query parameters", func(t *testing.T) {
		tests := []struct {
			name    string
			query   string
			wantMsg string
		}{
			{"missing amount", "", "amount is required"},
			{"non-decimal amount", "?amount=lots", "amount must be a positive decimal"},
			{"zero amount", "?amount=0", "amount must be a positive decimal"},
			{"negative min profit", "?amount=1&minProfit=-1", "minProfit must be a non-negative decimal"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := doCalldata(t, &fakeSettlement{}, tt.query)

				require.Equal(t, http.StatusBadRequest, rec.Code)

				var resp struct {
					Success bool   `json:"success"`
					Error   string `json:"error"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.False(t, resp.Success)
				assert.Equal(t, tt.wantMsg, resp.Error)
			})
		}
	})

	t.Run("maps a packing failure to 500", func(t *testing.T) {
		reader := &fakeSettlement{err: domain.ErrUpstream}
		rec := doCalldata(t, reader, "?amount=1")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
