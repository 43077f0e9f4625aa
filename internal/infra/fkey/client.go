// Package fkey implements the HTTP client for the alias resolver
// service: alias name in, address plus ownership attestation out.
package fkey

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const lookupTimeout = 15 * time.Second

// Client is the resolver HTTP client
type Client struct {
	baseURL string
	httpCli *http.Client
}

// LookupResult mirrors the resolver's lookup response
type LookupResult struct {
	Registered  bool   `json:"registered"`
	Address     string `json:"address,omitempty"`
	Attestation string `json:"attestation,omitempty"`
	Error       string `json:"error,omitempty"`
}

// NewClient creates a new resolver client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpCli: &http.Client{Timeout: lookupTimeout},
	}
}

// Lookup resolves an alias. A non-registered alias or a resolver-side
// error message comes back as an error with the resolver's own wording
// so the user sees actionable remediation.
func (c *Client) Lookup(ctx context.Context, alias string) (*LookupResult, error) {
	endpoint := fmt.Sprintf("%s/api/lookup/%s", c.baseURL, url.PathEscape(alias))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolver unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &LookupResult{Registered: false}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("resolver %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out LookupResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("resolver response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("resolver: %s", out.Error)
	}
	return &out, nil
}
