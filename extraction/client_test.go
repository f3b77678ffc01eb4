package extraction

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"donorflow/types"
)

func testDoc() types.Document {
	return types.Document{
		ID:      "batch-3/checks/chk-001.png",
		Kind:    types.DocumentCheck,
		Name:    "chk-001.png",
		Content: []byte("fake-scan-bytes"),
	}
}

func TestExtractDocumentDecodesAndTagsRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/extract" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"records":[{"method":"check","reference":"1848","amount":"50.00","payment_date":"2026-02-01","payer_aliases":["Collins, Jonelle"],"contact":{}}]}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-key")
	records, err := client.ExtractDocument(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("ExtractDocument: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("record count = %d; want 1", len(records))
	}
	if records[0].SourceRef != "batch-3/checks/chk-001.png" {
		t.Errorf("source ref not tagged from document: %q", records[0].SourceRef)
	}
}

func TestExtractDocumentTransientStatuses(t *testing.T) {
	for _, code := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		client := NewHTTPClient(srv.URL, "")
		_, err := client.ExtractDocument(context.Background(), testDoc())
		if err == nil {
			t.Fatalf("status %d: expected error", code)
		}
		if !IsTransient(err) {
			t.Errorf("status %d should be transient, got %v", code, err)
		}
		srv.Close()
	}
}

func TestExtractDocumentPermanentFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte("unsupported document format"))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "")
	_, err := client.ExtractDocument(context.Background(), testDoc())
	if err == nil {
		t.Fatal("expected error")
	}
	if IsTransient(err) {
		t.Errorf("422 must not be retried: %v", err)
	}
}

func TestExtractDocumentConnectionFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewHTTPClient(srv.URL, "")
	_, err := client.ExtractDocument(context.Background(), testDoc())
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransient(err) {
		t.Errorf("network failure should be transient, got %v", err)
	}
}
