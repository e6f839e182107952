// Package oracle provides the native-asset price source consumed by the cost
// model. The oracle is an external collaborator; this client only fetches and
// validates, it does not cache (see the redis quote cache for that).
package oracle

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

// Client fetches fiat prices for native assets from the price oracle API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an oracle client for the given base URL. A non-positive
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

// priceResponse is the oracle's wire format. The price is a decimal string to
// preserve precision across the JSON boundary.
type priceResponse struct {
	Asset string `json:"asset"`
	USD   string `json:"usd"`
}

// NativePrice returns the current USD price for the given asset symbol.
func (c *Client) NativePrice(ctx context.Context, asset string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/v1/price/%s", c.baseURL, asset)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("oracle: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("oracle: fetch price %s: %w", asset, errUpstream(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return decimal.Zero, fmt.Errorf("oracle: price %s: %w: status %d: %s",
			asset, domain.ErrUpstream, resp.StatusCode, string(body))
	}

	var pr priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return decimal.Zero, fmt.Errorf("oracle: decode price %s: %w", asset, domain.ErrUpstream)
	}

	price, err := decimal.NewFromString(pr.USD)
	if err != nil || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("oracle: price %s: %w: bad value %q", asset, domain.ErrUpstream, pr.USD)
	}

	return price, nil
}

func errUpstream(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
}
