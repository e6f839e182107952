package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

var _ domain.EstimateStore = (*EstimateStore)(nil)

// EstimateStore implements domain.EstimateStore using PostgreSQL. The cost
// breakdown is stored as JSONB so its decimals round-trip exactly; the
// top-line fiat figures are stored as doubles for querying and reporting.
type EstimateStore struct {
	pool *pgxpool.Pool
}

// NewEstimateStore creates an EstimateStore backed by the given pool.
func NewEstimateStore(pool *pgxpool.Pool) *EstimateStore {
	return &EstimateStore{pool: pool}
}

const estimateSelectCols = `id, amount, buy_price, sell_price, fee_tier, liquidity_depth,
	gross_profit_usd, total_cost_usd, net_profit_usd, profit_margin_pct, spread_pct, should_execute,
	breakdown,
	gas_risk, slippage_risk, mev_risk, timing_risk, profit_margin,
	decision, reason, confidence, source, created_at`

// Insert stores a completed estimate.
func (s *EstimateStore) Insert(ctx context.Context, est domain.Estimate) error {
	const query = `
		INSERT INTO estimates (
			id, amount, buy_price, sell_price, fee_tier, liquidity_depth,
			gross_profit_usd, total_cost_usd, net_profit_usd, profit_margin_pct, spread_pct, should_execute,
			breakdown,
			gas_risk, slippage_risk, mev_risk, timing_risk, profit_margin,
			decision, reason, confidence, source, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13,
			$14, $15, $16, $17, $18,
			$19, $20, $21, $22, $23
		)`

	breakdown, err := json.Marshal(est.Breakdown)
	if err != nil {
		return fmt.Errorf("postgres: encode breakdown for estimate %s: %w", est.ID, err)
	}

	_, err = s.pool.Exec(ctx, query,
		est.ID, est.Request.Amount.String(), est.Summary.BuyPrice.InexactFloat64(),
		est.Summary.SellPrice.InexactFloat64(), int(est.Request.FeeTier), string(est.Request.Liquidity),
		est.Summary.GrossProfitUSD.InexactFloat64(), est.Summary.TotalCostUSD.InexactFloat64(),
		est.Summary.NetProfitUSD.InexactFloat64(), est.Summary.ProfitMarginPct.InexactFloat64(),
		est.Summary.SpreadPct.InexactFloat64(), est.Summary.ShouldExecute,
		breakdown,
		string(est.Risk.Profile.Gas), string(est.Risk.Profile.Slippage), string(est.Risk.Profile.MEV),
		string(est.Risk.Profile.Timing), string(est.Risk.Profile.Margin),
		string(est.Risk.Decision), est.Risk.Reason, est.Risk.Confidence, string(est.Risk.Source),
		est.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert estimate %s: %w", est.ID, err)
	}
	return nil
}

// GetByID returns a single estimate.
func (s *EstimateStore) GetByID(ctx context.Context, id string) (domain.Estimate, error) {
	query := `SELECT ` + estimateSelectCols + ` FROM estimates WHERE id = $1`

	est, err := scanEstimate(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Estimate{}, domain.ErrNotFound
		}
		return domain.Estimate{}, fmt.Errorf("postgres: get estimate %s: %w", id, err)
	}
	return est, nil
}

// ListRecent returns the newest estimates first.
func (s *EstimateStore) ListRecent(ctx context.Context, limit int) ([]domain.Estimate, error) {
	query := `SELECT ` + estimateSelectCols + ` FROM estimates ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}
	return s.list(ctx, query, args...)
}

// ListBefore returns estimates created strictly before the cutoff, oldest
// first, for archival.
func (s *EstimateStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Estimate, error) {
	query := `SELECT ` + estimateSelectCols + ` FROM estimates WHERE created_at < $1 ORDER BY created_at ASC`
	return s.list(ctx, query, before)
}

// DeleteBefore removes estimates created strictly before the cutoff.
func (s *EstimateStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM estimates WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete estimates before %s: %w", before, err)
	}
	return tag.RowsAffected(), nil
}

func (s *EstimateStore) list(ctx context.Context, query string, args ...any) ([]domain.Estimate, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list estimates: %w", err)
	}
	defer rows.Close()

	var ests []domain.Estimate
	for rows.Next() {
		est, err := scanEstimate(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan estimate: %w", err)
		}
		ests = append(ests, est)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list estimates rows: %w", err)
	}
	return ests, nil
}

// scanEstimate rebuilds a domain.Estimate from one row.
func scanEstimate(row pgx.Row) (domain.Estimate, error) {
	var (
		est       domain.Estimate
		amount    string
		buyPrice  float64
		sellPrice float64
		feeTier   int
		liquidity string
		gross     float64
		total     float64
		net       float64
		margin    float64
		spread    float64
		breakdown []byte
	)

	err := row.Scan(
		&est.ID, &amount, &buyPrice, &sellPrice, &feeTier, &liquidity,
		&gross, &total, &net, &margin, &spread, &est.Summary.ShouldExecute,
		&breakdown,
		&est.Risk.Profile.Gas, &est.Risk.Profile.Slippage, &est.Risk.Profile.MEV,
		&est.Risk.Profile.Timing, &est.Risk.Profile.Margin,
		&est.Risk.Decision, &est.Risk.Reason, &est.Risk.Confidence, &est.Risk.Source,
		&est.CreatedAt,
	)
	if err != nil {
		return domain.Estimate{}, err
	}

	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Estimate{}, fmt.Errorf("bad stored amount %q: %w", amount, err)
	}
	if err := json.Unmarshal(breakdown, &est.Breakdown); err != nil {
		return domain.Estimate{}, fmt.Errorf("bad stored breakdown: %w", err)
	}

	est.Request = domain.TradeRequest{
		Amount:    amt,
		BuyPrice:  decimal.NewFromFloat(buyPrice),
		SellPrice: decimal.NewFromFloat(sellPrice),
		FeeTier:   domain.FeeTier(feeTier),
		Liquidity: domain.LiquidityDepth(liquidity),
	}
	est.Summary.Amount = amt
	est.Summary.BuyPrice = est.Request.BuyPrice
	est.Summary.SellPrice = est.Request.SellPrice
	est.Summary.GrossProfitUSD = decimal.NewFromFloat(gross)
	est.Summary.TotalCostUSD = decimal.NewFromFloat(total)
	est.Summary.NetProfitUSD = decimal.NewFromFloat(net)
	est.Summary.ProfitMarginPct = decimal.NewFromFloat(margin)
	est.Summary.ROIPct = est.Summary.ProfitMarginPct
	est.Summary.SpreadPct = decimal.NewFromFloat(spread)

	return est, nil
}
