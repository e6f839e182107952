// Package amm provides the AMM pool-state source for the sell side of the
// trade: spot price, size-adjusted execution price, and liquidity depth.
package amm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// Client queries pool state from the liquidity data API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an AMM client for the given base URL. A non-positive
// timeout falls back to 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// poolStateResponse is the wire format of the pool-state endpoint. Prices are
// decimal strings to preserve precision.
type poolStateResponse struct {
	SpotPrice      string `json:"spotPrice"`
	ExecutionPrice string `json:"executionPrice"`
	LiquidityDepth string `json:"liquidityDepth"`
}

// PoolState returns the pool snapshot for the given pair, with the execution
// price quoted for the requested trade size.
func (c *Client) PoolState(ctx context.Context, pair string, amount decimal.Decimal) (domain.PoolState, error) {
	u := fmt.Sprintf("%s/v1/pools/%s/state?amount=%s", c.baseURL, url.PathEscape(pair), amount)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.PoolState{}, fmt.Errorf("amm: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PoolState{}, fmt.Errorf("amm: fetch pool state %s: %w: %v", pair, domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.PoolState{}, fmt.Errorf("amm: pool state %s: %w: status %d: %s",
			pair, domain.ErrUpstream, resp.StatusCode, string(body))
	}

	var ps poolStateResponse
	if err := json.NewDecoder(resp.Body).Decode(&ps); err != nil {
		return domain.PoolState{}, fmt.Errorf("amm: decode pool state %s: %w", pair, domain.ErrUpstream)
	}

	spot, err := decimal.NewFromString(ps.SpotPrice)
	if err != nil || !spot.IsPositive() {
		return domain.PoolState{}, fmt.Errorf("amm: pool state %s: %w: bad spot price %q", pair, domain.ErrUpstream, ps.SpotPrice)
	}
	exec, err := decimal.NewFromString(ps.ExecutionPrice)
	if err != nil || !exec.IsPositive() {
		return domain.PoolState{}, fmt.Errorf("amm: pool state %s: %w: bad execution price %q", pair, domain.ErrUpstream, ps.ExecutionPrice)
	}

	depth := domain.LiquidityDepth(ps.LiquidityDepth)
	if !depth.Valid() || depth == "" {
		// Unknown classification from the venue; treat as the middle band
		// rather than failing the whole estimate over a label.
		depth = domain.LiquidityMedium
	}

	return domain.PoolState{
		SpotPrice:      spot,
		ExecutionPrice: exec,
		Liquidity:      depth,
	}, nil
}
