package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"donorflow/common"
	"donorflow/orchestrator"
	"donorflow/state"
	"donorflow/types"
)

// PostedMarker records identities the posting collaborator has
// confirmed as posted to the accounting platform.
type PostedMarker interface {
	MarkPosted(ctx context.Context, identity types.PaymentIdentity) error
}

// ReconcileService exposes reconciliation runs over HTTP and to the
// Kafka batch-event consumer. A mutex keeps runs serial: the state
// manager tracks a single run at a time.
type ReconcileService struct {
	orchestrator *orchestrator.Orchestrator
	state        *state.Manager
	store        *common.S3
	bucket       string
	marker       PostedMarker
	mu           sync.Mutex
}

func NewReconcileService(orch *orchestrator.Orchestrator, st *state.Manager, store *common.S3, bucket string, marker PostedMarker) *ReconcileService {
	return &ReconcileService{
		orchestrator: orch,
		state:        st,
		store:        store,
		bucket:       bucket,
		marker:       marker,
	}
}

// RegisterReconcileRoutes registers reconciliation endpoints.
func RegisterReconcileRoutes(r *gin.Engine, svc *ReconcileService) {
	g := r.Group("/api/reconcile")
	g.POST("/run", svc.handleRun)
	g.POST("/records", svc.handleRunRecords)
	g.POST("/posted", svc.handlePosted)
	g.GET("/status", svc.handleStatus)
	g.GET("/result", svc.handleResult)
}

// RunRequest starts a run over documents in the store (bucket/prefix) or
// over documents supplied inline.
type RunRequest struct {
	Bucket    string           `json:"bucket"`
	Prefix    string           `json:"prefix"`
	Documents []types.Document `json:"documents"`
}

type RunResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// RunRecordsRequest starts a run over already-extracted records, such as
// parsed rows from an online giving export.
type RunRecordsRequest struct {
	Records []types.RawPaymentRecord `json:"records" binding:"required"`
}

func (s *ReconcileService) handleRun(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, RunResponse{Error: err.Error()})
		return
	}
	if len(req.Documents) == 0 && req.Prefix == "" {
		c.JSON(http.StatusBadRequest, RunResponse{Error: "either documents or a bucket prefix is required"})
		return
	}

	if !s.tryAcquireRun(c) {
		return
	}

	go func() {
		defer s.mu.Unlock()
		ctx := context.Background()
		if len(req.Documents) > 0 {
			if _, err := s.orchestrator.Run(ctx, req.Documents); err != nil {
				log.Printf("Reconciliation run failed: %v", err)
			}
			return
		}
		bucket := req.Bucket
		if bucket == "" {
			bucket = s.bucket
		}
		if err := s.runBatch(ctx, bucket, req.Prefix); err != nil {
			log.Printf("Reconciliation run failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, RunResponse{Success: true, Message: "reconciliation run started"})
}

// tryAcquireRun takes the run mutex or answers 409. The launched
// goroutine owns the mutex until the run finishes, so two simultaneous
// requests can never both start.
func (s *ReconcileService) tryAcquireRun(c *gin.Context) bool {
	if !s.mu.TryLock() {
		c.JSON(http.StatusConflict, RunResponse{Error: fmt.Sprintf("a run is already in progress (%s)", s.state.GetState())})
		return false
	}
	if running := s.state.GetState(); isActive(running) {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, RunResponse{Error: fmt.Sprintf("a run is already in progress (%s)", running)})
		return false
	}
	return true
}

func (s *ReconcileService) handleRunRecords(c *gin.Context) {
	var req RunRecordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, RunResponse{Error: err.Error()})
		return
	}

	if !s.tryAcquireRun(c) {
		return
	}

	go func() {
		defer s.mu.Unlock()
		if _, err := s.orchestrator.RunRecords(context.Background(), req.Records); err != nil {
			log.Printf("Reconciliation run failed: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, RunResponse{Success: true, Message: "reconciliation run started"})
}

// PostedRequest confirms identities that were posted to the accounting
// platform, so later runs flag them as already posted.
type PostedRequest struct {
	Identities []types.PaymentIdentity `json:"identities" binding:"required"`
}

type PostedResponse struct {
	Marked int    `json:"marked"`
	Error  string `json:"error,omitempty"`
}

func (s *ReconcileService) handlePosted(c *gin.Context) {
	var req PostedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, PostedResponse{Error: err.Error()})
		return
	}
	if s.marker == nil {
		c.JSON(http.StatusServiceUnavailable, PostedResponse{Error: "posting register is not configured"})
		return
	}

	marked := 0
	for _, identity := range req.Identities {
		if err := s.marker.MarkPosted(c.Request.Context(), identity); err != nil {
			c.JSON(http.StatusInternalServerError, PostedResponse{Marked: marked, Error: err.Error()})
			return
		}
		marked++
	}
	c.JSON(http.StatusOK, PostedResponse{Marked: marked})
}

func (s *ReconcileService) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.GetStatus())
}

func (s *ReconcileService) handleResult(c *gin.Context) {
	result := s.state.Result()
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no completed run"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// RunBatch loads documents from the store and reconciles them, then
// exports the result next to the source documents. It also serves the
// Kafka batch-event consumer.
func (s *ReconcileService) RunBatch(ctx context.Context, bucket, prefix string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runBatch(ctx, bucket, prefix)
}

// runBatch does the work of RunBatch. Caller must hold s.mu.
func (s *ReconcileService) runBatch(ctx context.Context, bucket, prefix string) error {
	if s.store == nil {
		return fmt.Errorf("document store is not configured")
	}

	docs, err := common.LoadDocuments(ctx, s.store, bucket, prefix)
	if err != nil {
		return err
	}
	result, err := s.orchestrator.Run(ctx, docs)
	if err != nil {
		return err
	}
	if _, err := common.ExportResult(ctx, s.store, bucket, prefix, result); err != nil {
		log.Printf("Result export failed for run %s: %v", result.RunID, err)
	}
	return nil
}

func isActive(s state.RunState) bool {
	switch s {
	case state.StateExtracting, state.StateDeduplicating, state.StateLoadingDirectory, state.StateMatching:
		return true
	}
	return false
}
