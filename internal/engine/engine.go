// Package engine sequences one estimation end to end: aggregate costs, run
// risk classification, persist and announce the result. It holds no decision
// logic of its own.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Diyadey08/Mordex/internal/domain"
	"github.com/Diyadey08/Mordex/internal/risk"
)

// SignalChannel is the bus channel completed estimates are announced on.
const SignalChannel = "ch:estimate"

// Aggregator is the profit-aggregation surface the engine depends on.
type Aggregator interface {
	Estimate(ctx context.Context, req domain.TradeRequest) (*domain.Valuation, error)
}

// Engine runs the decision pipeline. Store and bus are optional; estimation
// works without persistence, and persistence failures never fail a request.
type Engine struct {
	aggregator Aggregator
	strategy   risk.Strategy
	store      domain.EstimateStore
	bus        domain.SignalBus

	blockTime time.Duration

	logger *slog.Logger
}

// New wires the engine. blockTime is the destination chain's block time; it
// is advisory context for the risk layer and may be zero.
func New(
	aggregator Aggregator,
	strategy risk.Strategy,
	store domain.EstimateStore,
	bus domain.SignalBus,
	blockTime time.Duration,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		aggregator: aggregator,
		strategy:   strategy,
		store:      store,
		bus:        bus,
		blockTime:  blockTime,
		logger:     logger.With("component", "engine"),
	}
}

// Decide estimates the trade and classifies its risk. Aggregation failure
// fails the whole request; the risk strategy is never called with a partial
// valuation.
func (e *Engine) Decide(ctx context.Context, req domain.TradeRequest) (*domain.Estimate, error) {
	val, err := e.aggregator.Estimate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("engine: decide: %w", err)
	}
	val.Context.BlockTime = e.blockTime

	assessment, err := e.strategy.Assess(ctx, val)
	if err != nil {
		return nil, fmt.Errorf("engine: decide: %w", err)
	}

	est := &domain.Estimate{
		ID:        uuid.NewString(),
		Request:   req,
		Summary:   val.Summary,
		Breakdown: val.Breakdown,
		Risk:      assessment,
		CreatedAt: time.Now().UTC(),
	}

	e.logger.InfoContext(ctx, "decision made",
		"id", est.ID,
		"decision", assessment.Decision,
		"reason", assessment.Reason,
		"netProfitUsd", val.Summary.NetProfitUSD,
		"source", assessment.Source,
	)

	e.record(ctx, est)
	return est, nil
}

// record persists and announces the estimate on a best-effort basis.
func (e *Engine) record(ctx context.Context, est *domain.Estimate) {
	if e.store != nil {
		if err := e.store.Insert(ctx, *est); err != nil {
			e.logger.WarnContext(ctx, "failed to persist estimate", "id", est.ID, "error", err)
		}
	}
	if e.bus != nil {
		payload, err := json.Marshal(est)
		if err != nil {
			e.logger.WarnContext(ctx, "failed to encode estimate for broadcast", "id", est.ID, "error", err)
			return
		}
		if err := e.bus.Publish(ctx, SignalChannel, payload); err != nil {
			e.logger.WarnContext(ctx, "failed to broadcast estimate", "id", est.ID, "error", err)
		}
	}
}
