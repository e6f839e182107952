// Package bridge provides the cross-chain relayer fee quote source. Quotes
// are size-dependent, so the trade amount is part of every request.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Diyadey08/Mordex/internal/domain"
)

// Client fetches bridging fee quotes from the relayer API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a bridge client for the given base URL. A non-positive
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

// quoteResponse is the relayer's wire format. Fee percentages are decimal
// strings; estimatedTimeSeconds is the relayer's fill-time estimate.
type quoteResponse struct {
	LPFeePct             string `json:"lpFeePct"`
	RelayerGasFeePct     string `json:"relayerGasFeePct"`
	RelayerCapitalFeePct string `json:"relayerCapitalFeePct"`
	EstimatedTimeSeconds int64  `json:"estimatedTimeSeconds"`
}

// Quote returns the relayer fee breakdown for bridging the given amount.
func (c *Client) Quote(ctx context.Context, amount decimal.Decimal) (domain.BridgeFees, error) {
	u := fmt.Sprintf("%s/v1/quote?amount=%s", c.baseURL, amount)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.BridgeFees{}, fmt.Errorf("bridge: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.BridgeFees{}, fmt.Errorf("bridge: fetch quote: %w: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.BridgeFees{}, fmt.Errorf("bridge: quote: %w: status %d: %s",
			domain.ErrUpstream, resp.StatusCode, string(body))
	}

	var qr quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return domain.BridgeFees{}, fmt.Errorf("bridge: decode quote: %w", domain.ErrUpstream)
	}

	fees := domain.BridgeFees{
		EstimatedTime: time.Duration(qr.EstimatedTimeSeconds) * time.Second,
	}
	for _, f := range []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"lpFeePct", qr.LPFeePct, &fees.LPFeePct},
		{"relayerGasFeePct", qr.RelayerGasFeePct, &fees.RelayerGasFeePct},
		{"relayerCapitalFeePct", qr.RelayerCapitalFeePct, &fees.RelayerCapitalFeePct},
	} {
		d, err := decimal.NewFromString(f.raw)
		if err != nil || d.IsNegative() {
			return domain.BridgeFees{}, fmt.Errorf("bridge: quote: %w: bad %s %q", domain.ErrUpstream, f.name, f.raw)
		}
		*f.dst = d
	}

	return fees, nil
}
