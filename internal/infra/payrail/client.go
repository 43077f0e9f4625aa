// Package payrail implements the HTTP client for the payment-rail
// service that mints shareable payable links.
package payrail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const mintTimeout = 30 * time.Second

// Client is the payment-rail HTTP client
type Client struct {
	baseURL string
	apiKey  string
	httpCli *http.Client
}

// NewClient creates a new payment-rail client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpCli: &http.Client{Timeout: mintTimeout},
	}
}

type linkRequest struct {
	ToAddress string `json:"toAddress"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	ChainID   int64  `json:"chainId"`
	Memo      string `json:"memo,omitempty"`
}

type linkResponse struct {
	PaymentURL string `json:"paymentUrl"`
	Error      string `json:"error,omitempty"`
}

// CreateLink mints a payable link for the given destination and amount
func (c *Client) CreateLink(ctx context.Context, toAddress, amount, currency string, chainID int64, memo string) (string, error) {
	raw, err := json.Marshal(linkRequest{
		ToAddress: toAddress,
		Amount:    amount,
		Currency:  currency,
		ChainID:   chainID,
		Memo:      memo,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/links", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Api-Key", c.apiKey)
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return "", fmt.Errorf("payment rail unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("payment rail %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out linkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("payment rail response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("payment rail: %s", out.Error)
	}
	if out.PaymentURL == "" {
		return "", fmt.Errorf("payment rail returned no link")
	}
	return out.PaymentURL, nil
}
