package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"donorflow/orchestrator"
	"donorflow/state"
	"donorflow/types"
)

type stubExtractor struct{}

func (stubExtractor) ExtractDocument(ctx context.Context, doc types.Document) ([]types.RawPaymentRecord, error) {
	return []types.RawPaymentRecord{{
		Method:      "check",
		Reference:   "1848",
		Amount:      "250.00",
		PaymentDate: "2026-08-14",
		Aliases:     []string{"Collins, Jonelle"},
		SourceRef:   doc.ID,
	}}, nil
}

type stubDirectory struct{}

func (stubDirectory) FetchAll(ctx context.Context) ([]types.DirectoryEntry, error) {
	return []types.DirectoryEntry{{ID: "cust-1", DisplayName: "Collins, Jonelle"}}, nil
}

func (stubDirectory) QueryByName(ctx context.Context, name string) ([]types.DirectoryEntry, error) {
	return nil, nil
}

func newTestRouter() (*gin.Engine, *state.Manager) {
	gin.SetMode(gin.TestMode)
	st := state.NewManager()
	orch := orchestrator.New(orchestrator.Deps{
		Extractor: stubExtractor{},
		Directory: stubDirectory{},
		State:     st,
	}, orchestrator.Config{})
	svc := NewReconcileService(orch, st, nil, "", nil)
	return NewRouter(svc), st
}

func waitForComplete(t *testing.T, st *state.Manager) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		switch st.GetState() {
		case state.StateComplete:
			return
		case state.StateError:
			t.Fatalf("run failed: %+v", st.GetStatus())
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run did not complete: %s", st.GetState())
}

func TestRunEndpointAcceptsInlineDocuments(t *testing.T) {
	router, st := newTestRouter()

	body := `{"documents":[{"id":"doc-1","kind":"check","name":"scan-001.png"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reconcile/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	waitForComplete(t, st)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reconcile/result", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("result status = %d", w.Code)
	}
	var result types.BatchResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if len(result.Records) != 1 || result.Summary.RecordsMatched != 1 {
		t.Errorf("result = %+v", result.Summary)
	}
}

func TestRunEndpointRejectsEmptyRequest(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reconcile/run", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", w.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	router, st := newTestRouter()
	st.StartRun("run-77")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reconcile/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var status state.StatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding status: %v", err)
	}
	if status.RunID != "run-77" || status.State != state.StateExtracting {
		t.Errorf("status = %+v", status)
	}
}

func TestResultEndpointBeforeAnyRun(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reconcile/result", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", w.Code)
	}
}

type gatedExtractor struct {
	started chan struct{}
	release chan struct{}
}

func (g *gatedExtractor) ExtractDocument(ctx context.Context, doc types.Document) ([]types.RawPaymentRecord, error) {
	close(g.started)
	<-g.release
	return stubExtractor{}.ExtractDocument(ctx, doc)
}

func TestSimultaneousRunRequestsStartOnlyOneRun(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := state.NewManager()
	extractor := &gatedExtractor{started: make(chan struct{}), release: make(chan struct{})}
	orch := orchestrator.New(orchestrator.Deps{
		Extractor: extractor,
		Directory: stubDirectory{},
		State:     st,
	}, orchestrator.Config{})
	router := NewRouter(NewReconcileService(orch, st, nil, "", nil))

	body := `{"documents":[{"id":"doc-1","kind":"check"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reconcile/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("first run status = %d", w.Code)
	}
	<-extractor.started

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/reconcile/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("second run status = %d; want 409", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/reconcile/records", strings.NewReader(`{"records":[{"method":"online"}]}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusConflict {
		t.Errorf("records run status = %d; want 409", w.Code)
	}

	close(extractor.release)
	waitForComplete(t, st)
	if runID := st.GetStatus().RunID; runID == "" {
		t.Error("expected a completed run")
	}
}

func TestRunEndpointConflictsWhileRunning(t *testing.T) {
	router, st := newTestRouter()
	st.StartRun("run-88")

	body := `{"documents":[{"id":"doc-1","kind":"check"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reconcile/run", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d; want 409", w.Code)
	}
}

type fakeMarker struct {
	keys []string
}

func (f *fakeMarker) MarkPosted(ctx context.Context, identity types.PaymentIdentity) error {
	f.keys = append(f.keys, identity.Key())
	return nil
}

func TestPostedEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	st := state.NewManager()
	orch := orchestrator.New(orchestrator.Deps{
		Extractor: stubExtractor{},
		Directory: stubDirectory{},
		State:     st,
	}, orchestrator.Config{})
	marker := &fakeMarker{}
	router := NewRouter(NewReconcileService(orch, st, nil, "", marker))

	body := `{"identities":[{"kind":"check","reference":"49","amount":"250.00"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reconcile/posted", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(marker.keys) != 1 || marker.keys[0] != "check|49|250.00" {
		t.Errorf("marked keys = %v", marker.keys)
	}
}

func TestPostedEndpointWithoutRegister(t *testing.T) {
	router, _ := newTestRouter()

	body := `{"identities":[{"kind":"check","reference":"49","amount":"250.00"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/reconcile/posted", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d; want 503", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}
