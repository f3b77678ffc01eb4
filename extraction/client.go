// Package extraction talks to the external document-extraction service
// and validates what comes back. The pipeline never parses images or PDFs
// itself; it consumes the service's structured output and is responsible
// for rejecting or repairing it.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"donorflow/config"
	"donorflow/types"
)

// Client describes the extraction capability the orchestrator needs.
type Client interface {
	// ExtractDocument turns one scanned document into structured payment
	// records. A single document may yield several records, e.g. a
	// handwritten ledger page.
	ExtractDocument(ctx context.Context, doc types.Document) ([]types.RawPaymentRecord, error)
}

// TransientError marks a failure worth retrying: a rate-limit response or
// a timeout.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// HTTPClient implements Client against the extraction service's JSON API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient creates an extraction client for the given endpoint.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: config.ExtractionTimeout},
	}
}

// NewHTTPClientFromEnv creates a client from EXTRACTION_API_URL and
// EXTRACTION_API_KEY.
func NewHTTPClientFromEnv() (*HTTPClient, error) {
	url := os.Getenv("EXTRACTION_API_URL")
	if url == "" {
		return nil, fmt.Errorf("EXTRACTION_API_URL is not set")
	}
	return NewHTTPClient(url, os.Getenv("EXTRACTION_API_KEY")), nil
}

type extractRequest struct {
	DocumentID string `json:"document_id"`
	Kind       string `json:"kind"`
	Filename   string `json:"filename,omitempty"`
	Content    []byte `json:"content"`
}

type extractResponse struct {
	Records []types.RawPaymentRecord `json:"records"`
}

// ExtractDocument posts the document payload and decodes the record set.
// Rate-limit and server-side failures come back as TransientError so the
// orchestrator can retry them; anything else is permanent.
func (c *HTTPClient) ExtractDocument(ctx context.Context, doc types.Document) ([]types.RawPaymentRecord, error) {
	payload := extractRequest{
		DocumentID: doc.ID,
		Kind:       string(doc.Kind),
		Filename:   doc.Name,
		Content:    doc.Content,
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/extract", bytes.NewBuffer(b))
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Network-level failures include timeouts; retryable.
		return nil, &TransientError{Err: fmt.Errorf("extraction request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		statusErr := fmt.Errorf("extraction service returned %d: %s", resp.StatusCode, string(body))
		if retryableStatus(resp.StatusCode) {
			return nil, &TransientError{Err: statusErr}
		}
		return nil, statusErr
	}

	var parsed extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}

	// Tag records with their source document when the service omits it.
	for i := range parsed.Records {
		if parsed.Records[i].SourceRef == "" {
			parsed.Records[i].SourceRef = doc.ID
		}
	}

	return parsed.Records, nil
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
