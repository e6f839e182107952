package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// DecisionService is the estimation pipeline surface the handler depends on.
type DecisionService interface {
	Decide(ctx context.Context, req domain.TradeRequest) (*domain.Estimate, error)
}

// EstimateHandler serves the estimation endpoint.
type EstimateHandler struct {
	engine DecisionService
	logger *slog.Logger
}

// NewEstimateHandler creates an EstimateHandler.
func NewEstimateHandler(engine DecisionService, logger *slog.Logger) *EstimateHandler {
	return &EstimateHandler{
		engine: engine,
		logger: logHandler(logger, "estimate"),
	}
}

// estimateRequest is the wire request. Amount is a decimal string to preserve
// precision across the native/fiat boundary; prices are JSON numbers kept as
// json.Number so they reach decimal parsing untouched by float64.
type estimateRequest struct {
	Amount    string      `json:"amount"`
	BuyPrice  json.Number `json:"buyPrice"`
	SellPrice json.Number `json:"sellPrice"`

	FeeTier        int    `json:"feeTier,omitempty"`
	LiquidityDepth string `json:"liquidityDepth,omitempty"`
}

// simulationResponse flattens the profit summary and risk assessment into one
// object, with the cost breakdown nested by category.
type simulationResponse struct {
	domain.ProfitSummary
	domain.RiskAssessment

	Breakdown domain.CostBreakdown `json:"breakdown"`
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"createdAt"`
}

// Estimate runs the full estimation pipeline for one trade.
// POST /api/estimate
func (h *EstimateHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var body estimateRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req, errMsg := body.toTradeRequest()
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg)
		return
	}

	est, err := h.engine.Decide(r.Context(), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "estimate failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "estimation failed: upstream cost source unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"simulation": simulationResponse{
			ProfitSummary:  est.Summary,
			RiskAssessment: est.Risk,
			Breakdown:      est.Breakdown,
			ID:             est.ID,
			CreatedAt:      est.CreatedAt,
		},
	})
}

// toTradeRequest parses and validates the wire request, returning a
// field-specific message for the first problem found.
func (b estimateRequest) toTradeRequest() (domain.TradeRequest, string) {
	if b.Amount == "" {
		return domain.TradeRequest{}, "amount is required"
	}
	amount, err := decimal.NewFromString(b.Amount)
	if err != nil {
		return domain.TradeRequest{}, "amount must be a decimal string"
	}
	if !amount.IsPositive() {
		return domain.TradeRequest{}, "amount must be positive"
	}

	buy, errMsg := parsePrice(b.BuyPrice, "buyPrice")
	if errMsg != "" {
		return domain.TradeRequest{}, errMsg
	}
	sell, errMsg := parsePrice(b.SellPrice, "sellPrice")
	if errMsg != "" {
		return domain.TradeRequest{}, errMsg
	}

	tier := domain.FeeTier(b.FeeTier)
	if tier != 0 && !tier.Valid() {
		return domain.TradeRequest{}, "feeTier must be one of 500, 3000, 10000"
	}
	depth := domain.LiquidityDepth(b.LiquidityDepth)
	if !depth.Valid() {
		return domain.TradeRequest{}, "liquidityDepth must be one of low, medium, high"
	}

	return domain.TradeRequest{
		Amount:    amount,
		BuyPrice:  buy,
		SellPrice: sell,
		FeeTier:   tier,
		Liquidity: depth,
	}, ""
}

func parsePrice(n json.Number, field string) (decimal.Decimal, string) {
	if n == "" {
		return decimal.Zero, field + " is required"
	}
	price, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, field + " must be a number"
	}
	if !price.IsPositive() {
		return decimal.Zero, field + " must be positive"
	}
	return price, ""
}
