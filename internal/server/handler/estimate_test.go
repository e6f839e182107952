package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Diyadey08/Mordex/internal/domain"
)

type fakeEngine struct {
	est *domain.Estimate
	err error
	req domain.TradeRequest
}

func (f *fakeEngine) Decide(ctx context.Context, req domain.TradeRequest) (*domain.Estimate, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return f.est, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleEstimate() *domain.Estimate {
	d := func(s string) decimal.Decimal {
		v, _ := decimal.NewFromString(s)
		return v
	}
	return &domain.Estimate{
		ID: "b5f9b6b8-0000-0000-0000-000000000001",
		Summary: domain.ProfitSummary{
			Amount:         d("0.01"),
			BuyPrice:       d("2900"),
			SellPrice:      d("2950"),
			GrossProfitUSD: d("0.5"),
			TotalCostUSD:   d("9.4513"),
			NetProfitUSD:   d("-8.9513"),
			SpreadPct:      d("1.72"),
		},
		Breakdown: domain.CostBreakdown{
			Gas: domain.CostItem{Native: d("0.003"), USD: d("9")},
		},
		Risk: domain.RiskAssessment{
			Profile: domain.RiskProfile{
				Gas: domain.RiskHigh, Slippage: domain.RiskLow,
				MEV: domain.RiskLow, Timing: domain.RiskHigh,
				Margin: domain.MarginThin,
			},
			Decision:   domain.DecisionSkip,
			Reason:     "net profit negative or zero",
			Confidence: 0.95,
			Source:     domain.SourceRules,
		},
		CreatedAt: time.Now().UTC(),
	}
}

func doEstimate(t *testing.T, eng *fakeEngine, body string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewEstimateHandler(eng, testLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/estimate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Estimate(rec, req)
	return rec
}

func TestEstimateHandler(t *testing.T) {
	t.Run("returns the simulation envelope on success", func(t *testing.T) {
		eng := &fakeEngine{est: sampleEstimate()}
		rec := doEstimate(t, eng, `{"amount":"0.01","buyPrice":2900,"sellPrice":2950}`)

		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Success    bool `json:"success"`
			Simulation struct {
				NetProfitUSD string `json:"netProfitUsd"`
				Decision     string `json:"decision"`
				Reason       string `json:"reason"`
				Risk         struct {
					GasRisk string `json:"gasRisk"`
				} `json:"riskAnalysis"`
				Breakdown struct {
					Gas struct {
						USD string `json:"usd"`
					} `json:"gas"`
				} `json:"breakdown"`
			} `json:"simulation"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "-8.9513", resp.Simulation.NetProfitUSD)
		assert.Equal(t, "SKIP", resp.Simulation.Decision)
		assert.Equal(t, "HIGH", resp.Simulation.Risk.GasRisk)
		assert.Equal(t, "9", resp.Simulation.Breakdown.Gas.USD)
	})

	t.Run("preserves decimal precision of the amount", func(t *testing.T) {
		eng := &fakeEngine{est: sampleEstimate()}
		doEstimate(t, eng, `{"amount":"0.123456789123456789","buyPrice":2900,"sellPrice":2950}`)

		assert.Equal(t, "0.123456789123456789", eng.req.Amount.String())
	})

	t.Run("rejects invalid input per field", func(t *testing.T) {
		tests := []struct {
			name    string
			body    string
			wantMsg string
		}{
			{"missing amount", `{"buyPrice":2900,"sellPrice":2950}`, "amount is required"},
			{"non-decimal amount", `{"amount":"lots","buyPrice":2900,"sellPrice":2950}`, "amount must be a decimal string"},
			{"negative amount", `{"amount":"-1","buyPrice":2900,"sellPrice":2950}`, "amount must be positive"},
			{"missing buy price", `{"amount":"1","sellPrice":2950}`, "buyPrice is required"},
			{"zero buy price", `{"amount":"1","buyPrice":0,"sellPrice":2950}`, "buyPrice must be positive"},
			{"missing sell price", `{"amount":"1","buyPrice":2900}`, "sellPrice is required"},
			{"negative sell price", `{"amount":"1","buyPrice":2900,"sellPrice":-5}`, "sellPrice must be positive"},
			{"bad fee tier", `{"amount":"1","buyPrice":2900,"sellPrice":2950,"feeTier":1234}`, "feeTier must be one of 500, 3000, 10000"},
			{"bad liquidity", `{"amount":"1","buyPrice":2900,"sellPrice":2950,"liquidityDepth":"bottomless"}`, "liquidityDepth must be one of low, medium, high"},
			{"not JSON", `{{{`, "invalid JSON body"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				eng := &fakeEngine{est: sampleEstimate()}
				rec := doEstimate(t, eng, tt.body)

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

	t.Run("maps upstream failure to 500", func(t *testing.T) {
		eng := &fakeEngine{err: domain.ErrUpstream}
		rec := doEstimate(t, eng, `{"amount":"0.01","buyPrice":2900,"sellPrice":2950}`)

		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp struct {
			Success bool   `json:"success"`
			Error   string `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Error)
	})
}

type fakeHistoryStore struct {
	domain.EstimateStore
	recent []domain.Estimate
	byID   map[string]domain.Estimate
}

func (f *fakeHistoryStore) ListRecent(ctx context.Context, limit int) ([]domain.Estimate, error) {
	if limit < len(f.recent) {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

func (f *fakeHistoryStore) GetByID(ctx context.Context, id string) (domain.Estimate, error) {
	est, ok := f.byID[id]
	if !ok {
		return domain.Estimate{}, domain.ErrNotFound
	}
	return est, nil
}

func TestHistoryHandler(t *testing.T) {
	est := sampleEstimate()
	store := &fakeHistoryStore{
		recent: []domain.Estimate{*est},
		byID:   map[string]domain.Estimate{est.ID: *est},
	}
	h := NewHistoryHandler(store, testLogger())

	t.Run("lists recent estimates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/estimates/recent", nil)
		rec := httptest.NewRecorder()
		h.ListRecent(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp listEstimatesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Estimates, 1)
		assert.Equal(t, est.ID, resp.Estimates[0].ID)
	})

	t.Run("returns 404 for an unknown id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/estimates/nope", nil)
		req.SetPathValue("id", "nope")
		rec := httptest.NewRecorder()
		h.GetByID(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
