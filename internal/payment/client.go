// Package payment calls the external payment provider that settles the
// fiat leg of a swap.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TargetToken is the on-chain token every fiat swap settles into
const TargetToken = "KAIA"

// Config holds the connection settings for the payment provider
type Config struct {
	URL    string // Swap endpoint, e.g. "https://api.alchemy.com/v1/swap"
	APIKey string
}

// Client is a pure HTTP client for the payment provider API
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient creates a new payment provider client
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// swapRequest is the provider's expected request body
type swapRequest struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      int64  `json:"amount"`
	Destination string `json:"destination"`
}

// SwapResult is the provider's response to a swap request
type SwapResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CreateSwap asks the provider to move fiatAmount of fiatCurrency into
// KAIA credited to the destination address.
func (c *Client) CreateSwap(ctx context.Context, fiatCurrency string, fiatAmount int64, destination string) (*SwapResult, error) {
	body := swapRequest{
		From:        fiatCurrency,
		To:          TargetToken,
		Amount:      fiatAmount,
		Destination: destination,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

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
		return nil, fmt.Errorf("payment API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result SwapResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &result, nil
}
