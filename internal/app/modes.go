package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/Diyadey08/Mordex/internal/domain"
	"github.com/Diyadey08/Mordex/internal/server"
	"github.com/Diyadey08/Mordex/internal/server/handler"
	"github.com/Diyadey08/Mordex/internal/server/ws"
)

// ServerMode serves the estimation API over HTTP and WebSocket.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startHTTPServer(ctx, g, deps)
	a.startArchival(ctx, g, deps)

	return g.Wait()
}

// MonitorMode runs the background estimation loop without the HTTP API:
// quotes are sampled on an interval, run through the full pipeline, and
// EXECUTE decisions are pushed to the notification channels.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	g, ctx := errgroup.WithContext(ctx)

	if err := a.startMonitorLoop(ctx, g, deps); err != nil {
		return fmt.Errorf("monitor mode: %w", err)
	}
	a.startArchival(ctx, g, deps)

	return g.Wait()
}

// FullMode runs the HTTP API and the background estimation loop together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	a.startHTTPServer(ctx, g, deps)
	if err := a.startMonitorLoop(ctx, g, deps); err != nil {
		return fmt.Errorf("full mode: %w", err)
	}
	a.startArchival(ctx, g, deps)

	return g.Wait()
}

// startHTTPServer adds the HTTP server goroutines to the given errgroup. The
// WebSocket hub is wired only when a signal bus is available; history and
// settlement routes only when their backing dependencies exist.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(a.logger),
		Estimate: handler.NewEstimateHandler(deps.Engine, a.logger),
	}
	if deps.EstimateStore != nil {
		handlers.History = handler.NewHistoryHandler(deps.EstimateStore, a.logger)
	}
	if deps.Settlement != nil {
		handlers.Settlement = handler.NewSettlementHandler(deps.Settlement, a.logger)
	}

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.cfg.Mode, a.logger)
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.ApiKey,
		RateLimit:   a.cfg.Server.RateLimit,
		RateWindow:  a.cfg.Server.RateWindow.Duration,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// startMonitorLoop adds the background estimation ticker to the errgroup. On
// every tick a trade request is synthesized from the live oracle and pool
// quotes, estimated, and the decision forwarded to the notifier.
func (a *App) startMonitorLoop(ctx context.Context, g *errgroup.Group, deps *Dependencies) error {
	amount, err := decimal.NewFromString(a.cfg.Monitor.Amount)
	if err != nil || !amount.IsPositive() {
		return fmt.Errorf("monitor amount %q is not a positive decimal", a.cfg.Monitor.Amount)
	}

	interval := a.cfg.Monitor.Interval.Duration
	logger := a.logger.With(slog.String("component", "monitor"))

	g.Go(func() error {
		logger.InfoContext(ctx, "monitor loop started",
			slog.Duration("interval", interval),
			slog.String("amount", amount.String()),
		)
		a.publishStatus(ctx, deps, "monitor_started", map[string]any{
			"interval": interval.String(),
			"amount":   amount.String(),
		})

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				a.monitorTick(ctx, deps, amount, logger)
			}
		}
	})

	return nil
}

// monitorTick runs one sampled estimation. Upstream failures are logged and
// reported; they never stop the loop.
func (a *App) monitorTick(ctx context.Context, deps *Dependencies, amount decimal.Decimal, logger *slog.Logger) {
	buyPrice, err := deps.PriceSource.NativePrice(ctx, a.cfg.Oracle.Asset)
	if err != nil {
		logger.WarnContext(ctx, "monitor: oracle price fetch failed", slog.String("error", err.Error()))
		a.notifyError(ctx, deps, "oracle", err)
		return
	}

	pool, err := deps.PoolSource.PoolState(ctx, a.cfg.AMM.Pair, amount)
	if err != nil {
		logger.WarnContext(ctx, "monitor: pool state fetch failed", slog.String("error", err.Error()))
		a.notifyError(ctx, deps, "amm", err)
		return
	}

	req := domain.TradeRequest{
		Amount:    amount,
		BuyPrice:  buyPrice,
		SellPrice: pool.SpotPrice,
		Liquidity: pool.Liquidity,
	}

	est, err := deps.Engine.Decide(ctx, req)
	if err != nil {
		// Sampled quotes can legitimately produce an invalid request (e.g. a
		// zero spot price during an upstream glitch); only upstream outages
		// are worth alerting on.
		logger.WarnContext(ctx, "monitor: estimation failed", slog.String("error", err.Error()))
		if errors.Is(err, domain.ErrUpstream) {
			a.notifyError(ctx, deps, "estimate", err)
		}
		return
	}

	logger.InfoContext(ctx, "monitor: estimate completed",
		slog.String("id", est.ID),
		slog.String("decision", string(est.Risk.Decision)),
		slog.String("net_profit_usd", est.Summary.NetProfitUSD.String()),
	)

	if err := deps.Notifier.NotifyDecision(ctx, est); err != nil {
		logger.WarnContext(ctx, "monitor: decision notification failed", slog.String("error", err.Error()))
	}
}

// notifyError forwards an upstream failure to the notification channels and
// the WebSocket status feed.
func (a *App) notifyError(ctx context.Context, deps *Dependencies, source string, err error) {
	a.publishStatus(ctx, deps, "upstream_error", map[string]any{"source": source})
	if nerr := deps.Notifier.NotifyError(ctx, source, err); nerr != nil {
		a.logger.WarnContext(ctx, "error notification failed", slog.String("error", nerr.Error()))
	}
}

// publishStatus broadcasts a service status event on the status channel so
// WebSocket clients see monitor lifecycle alongside the estimate feed.
func (a *App) publishStatus(ctx context.Context, deps *Dependencies, event string, fields map[string]any) {
	if deps.SignalBus == nil {
		return
	}

	payload := map[string]any{
		"mode":  a.cfg.Mode,
		"event": event,
	}
	for k, v := range fields {
		payload[k] = v
	}

	msg, err := json.Marshal(map[string]any{
		"type":    "service_status",
		"payload": payload,
	})
	if err != nil {
		return
	}
	if err := deps.SignalBus.Publish(ctx, ws.StatusChannel, msg); err != nil {
		a.logger.WarnContext(ctx, "status publish failed", slog.String("error", err.Error()))
	}
}

// startArchival adds the periodic estimate archival goroutine when both blob
// storage and the estimate store are wired. Rows are pruned only after the
// archive upload succeeded.
func (a *App) startArchival(ctx context.Context, g *errgroup.Group, deps *Dependencies) {
	if deps.Archiver == nil || deps.EstimateStore == nil {
		return
	}

	interval := a.cfg.Monitor.ArchiveInterval.Duration
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	retention := time.Duration(a.cfg.Monitor.ArchiveRetentionDays) * 24 * time.Hour
	logger := a.logger.With(slog.String("component", "archival"))

	g.Go(func() error {
		logger.InfoContext(ctx, "archival loop started",
			slog.Duration("interval", interval),
			slog.Int("retention_days", a.cfg.Monitor.ArchiveRetentionDays),
		)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				cutoff := time.Now().UTC().Add(-retention)

				key, count, err := deps.Archiver.ArchiveEstimates(ctx, cutoff)
				if err != nil {
					logger.ErrorContext(ctx, "archival: upload failed", slog.String("error", err.Error()))
					continue
				}
				if count == 0 {
					continue
				}

				deleted, err := deps.EstimateStore.DeleteBefore(ctx, cutoff)
				if err != nil {
					logger.ErrorContext(ctx, "archival: prune failed, archived rows retained",
						slog.String("key", key),
						slog.String("error", err.Error()),
					)
					continue
				}

				logger.InfoContext(ctx, "archival: cycle complete",
					slog.String("key", key),
					slog.Int("archived", count),
					slog.Int64("deleted", deleted),
				)
			}
		}
	})
}
