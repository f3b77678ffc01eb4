// Package directory loads and indexes a snapshot of the accounting
// platform's customer list for the lifetime of one reconciliation run.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"donorflow/config"
	"donorflow/types"
)

// Client is the minimal accounting-platform surface the pipeline needs.
type Client interface {
	// FetchAll returns the full customer projection. Called once per run.
	FetchAll(ctx context.Context) ([]types.DirectoryEntry, error)

	// QueryByName looks a customer up by display name. Fallback only,
	// for when the bulk snapshot is stale or incomplete.
	QueryByName(ctx context.Context, name string) ([]types.DirectoryEntry, error)
}

// HTTPClient implements Client against the accounting platform's REST
// API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient creates an accounting directory client.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: config.DirectoryFetchTimeout},
	}
}

// NewHTTPClientFromEnv creates a client from ACCOUNTING_API_URL and
// ACCOUNTING_API_KEY.
func NewHTTPClientFromEnv() (*HTTPClient, error) {
	u := os.Getenv("ACCOUNTING_API_URL")
	if u == "" {
		return nil, fmt.Errorf("ACCOUNTING_API_URL is not set")
	}
	return NewHTTPClient(u, os.Getenv("ACCOUNTING_API_KEY")), nil
}

type customerListResponse struct {
	Customers []types.DirectoryEntry `json:"customers"`
}

// FetchAll pages through the customer list in one bulk pass.
func (c *HTTPClient) FetchAll(ctx context.Context) ([]types.DirectoryEntry, error) {
	var all []types.DirectoryEntry

	for offset := 0; ; offset += config.DirectoryPageSize {
		path := fmt.Sprintf("/v1/customers?offset=%d&limit=%d", offset, config.DirectoryPageSize)
		var page customerListResponse
		if err := c.getJSON(ctx, path, &page); err != nil {
			return nil, fmt.Errorf("customer list page at offset %d: %w", offset, err)
		}

		all = append(all, page.Customers...)
		if len(page.Customers) < config.DirectoryPageSize {
			return all, nil
		}
	}
}

// QueryByName searches the platform's query endpoint for an exact display
// name. The name is escaped so characters like an apostrophe cannot be
// interpreted as query syntax.
func (c *HTTPClient) QueryByName(ctx context.Context, name string) ([]types.DirectoryEntry, error) {
	query := fmt.Sprintf("display_name = '%s'", EscapeQueryValue(name))
	path := "/v1/customers/search?query=" + url.QueryEscape(query)

	var result customerListResponse
	if err := c.getJSON(ctx, path, &result); err != nil {
		return nil, fmt.Errorf("customer query for %q: %w", name, err)
	}
	return result.Customers, nil
}

// EscapeQueryValue escapes the characters the platform's query language
// treats specially, so a donor named O'Brien stays a literal value.
func EscapeQueryValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
