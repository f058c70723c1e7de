// Package market fetches snapshots from the external market data feed.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds the connection settings for the data feed
type Config struct {
	URL    string // Feed endpoint, e.g. "https://orakl.network/api/data-feed"
	APIKey string
}

// Client fetches market data over HTTP with bearer auth
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new market data client
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Snapshot fetches the current feed payload. The feed schema is owned by
// the provider, so the raw JSON is returned as-is.
func (c *Client) Snapshot(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("market data API error (%d): %s", resp.StatusCode, string(respBody))
	}

	return json.RawMessage(respBody), nil
}
