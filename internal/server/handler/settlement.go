package handler

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// SettlementReader is the read-only contract surface the handler exposes.
// ExecuteArbCalldata only packs bytes; nothing here signs or broadcasts.
type SettlementReader interface {
	Balance(ctx context.Context, account string) (decimal.Decimal, error)
	TransactionCount(ctx context.Context) (uint64, error)
	ExecuteArbCalldata(amount, minProfit decimal.Decimal) ([]byte, error)
}

// SettlementHandler serves settlement-contract state. It is optional; when
// the gateway is not configured, the routes are simply not registered.
type SettlementHandler struct {
	reader SettlementReader
	logger *slog.Logger
}

// NewSettlementHandler creates a SettlementHandler.
func NewSettlementHandler(reader SettlementReader, logger *slog.Logger) *SettlementHandler {
	return &SettlementHandler{
		reader: reader,
		logger: logHandler(logger, "settlement"),
	}
}

// Balance returns the deposited balance for an account.
// GET /api/settlement/balance?account=0x...
func (h *SettlementHandler) Balance(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account == "" {
		writeError(w, http.StatusBadRequest, "account is required")
		return
	}

	balance, err := h.reader.Balance(r.Context(), account)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid account address")
			return
		}
		h.logger.ErrorContext(r.Context(), "balance lookup failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to read settlement balance")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account":   account,
		"balance":   balance,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Status returns aggregate contract state.
// GET /api/settlement/status
func (h *SettlementHandler) Status(w http.ResponseWriter, r *http.Request) {
	count, err := h.reader.TransactionCount(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "transaction count failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to read settlement status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactionCount": count,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
	})
}

// Calldata packs executeArb calldata for an external signer to broadcast.
// GET /api/settlement/calldata?amount=1.5&minProfit=0.002
func (h *SettlementHandler) Calldata(w http.ResponseWriter, r *http.Request) {
	amountStr := r.URL.Query().Get("amount")
	if amountStr == "" {
		writeError(w, http.StatusBadRequest, "amount is required")
		return
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil || !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be a positive decimal")
		return
	}

	minProfit := decimal.Zero
	if s := r.URL.Query().Get("minProfit"); s != "" {
		minProfit, err = decimal.NewFromString(s)
		if err != nil || minProfit.IsNegative() {
			writeError(w, http.StatusBadRequest, "minProfit must be a non-negative decimal")
			return
		}
	}

	data, err := h.reader.ExecuteArbCalldata(amount, minProfit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, "invalid calldata parameters")
			return
		}
		h.logger.ErrorContext(r.Context(), "calldata packing failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to pack settlement calldata")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"amount":    amount,
		"minProfit": minProfit,
		"calldata":  "0x" + hex.EncodeToString(data),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
