// Package quote fetches prices from the external quote provider's REST API.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Client is an HTTP client for the quote provider. All calls honor the
// request context and the configured client timeout.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LatestPrice fetches the provider's most recent price for symbol.
func (c *Client) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v1/quote/latest?symbol=%s", c.baseURL, url.QueryEscape(symbol))

	var payload latestResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return decimal.Zero, err
	}
	if !payload.Price.IsPositive() {
		return decimal.Zero, fmt.Errorf("provider returned non-positive price %s for %s", payload.Price, symbol)
	}
	return payload.Price, nil
}

// ClosePrice fetches the closing price of symbol for one calendar date
// (formatted "2006-01-02").
func (c *Client) ClosePrice(ctx context.Context, symbol, date string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v1/quote/close?symbol=%s&date=%s",
		c.baseURL, url.QueryEscape(symbol), url.QueryEscape(date))

	var payload closeResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return decimal.Zero, err
	}
	if !payload.Close.IsPositive() {
		return decimal.Zero, fmt.Errorf("provider returned non-positive close %s for %s", payload.Close, symbol)
	}
	return payload.Close, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("provider error (%d): %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
