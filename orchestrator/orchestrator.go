package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"donorflow/config"
	"donorflow/deduplication"
	"donorflow/directory"
	"donorflow/enrich"
	"donorflow/extraction"
	"donorflow/match"
	"donorflow/state"
	"donorflow/types"
)

// PostedChecker answers whether a payment identity was already posted in
// an earlier run.
type PostedChecker interface {
	WasPosted(ctx context.Context, identity types.PaymentIdentity) (bool, error)
}

type Deps struct {
	Extractor extraction.Client
	Directory directory.Client
	Posted    PostedChecker
	State     *state.Manager
}

type Config struct {
	MaxConcurrentExtractions int
	MaxExtractionAttempts    int
	RetryBaseDelay           time.Duration
	MaxConcurrentMatches     int
}

func (c Config) withDefaults() Config {
	if c.MaxConcurrentExtractions <= 0 {
		c.MaxConcurrentExtractions = config.MaxConcurrentExtractions
	}
	if c.MaxExtractionAttempts <= 0 {
		c.MaxExtractionAttempts = config.MaxExtractionAttempts
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = config.ExtractionRetryBaseDelay
	}
	if c.MaxConcurrentMatches <= 0 {
		c.MaxConcurrentMatches = config.MaxConcurrentMatches
	}
	return c
}

// Orchestrator drives a reconciliation run end to end: extract documents,
// validate, deduplicate, load the customer directory, then match and
// enrich each canonical record.
type Orchestrator struct {
	deps    Deps
	cfg     Config
	matcher *match.Matcher
}

func New(deps Deps, cfg Config) *Orchestrator {
	return &Orchestrator{
		deps:    deps,
		cfg:     cfg.withDefaults(),
		matcher: match.NewMatcher(),
	}
}

// Run processes a batch of documents. Per-document and per-record
// failures are collected in the result; the only fatal errors are
// context cancellation and an unreachable customer directory.
func (o *Orchestrator) Run(ctx context.Context, docs []types.Document) (*types.BatchResult, error) {
	runID := uuid.New().String()
	o.deps.State.StartRun(runID)
	log.Printf("Starting reconciliation run %s with %d documents", runID, len(docs))

	result := &types.BatchResult{
		RunID:     runID,
		StartedAt: time.Now(),
	}
	result.Summary.FilesProcessed = len(docs)

	raw, failures := o.extractAll(ctx, docs)
	result.Failures = append(result.Failures, failures...)
	result.Summary.RecordsExtracted = len(raw)
	log.Printf("Extraction complete: %d records from %d documents, %d failures",
		len(raw), len(docs), len(failures))

	if err := ctx.Err(); err != nil {
		o.deps.State.SetError(err)
		return nil, err
	}

	return o.finishRun(ctx, result, raw)
}

// RunRecords processes records that arrive already extracted, such as
// rows from an online giving CSV export.
func (o *Orchestrator) RunRecords(ctx context.Context, raw []types.RawPaymentRecord) (*types.BatchResult, error) {
	runID := uuid.New().String()
	o.deps.State.StartRun(runID)
	log.Printf("Starting reconciliation run %s with %d pre-extracted records", runID, len(raw))

	result := &types.BatchResult{
		RunID:     runID,
		StartedAt: time.Now(),
	}
	result.Summary.RecordsExtracted = len(raw)

	return o.finishRun(ctx, result, raw)
}

func (o *Orchestrator) finishRun(ctx context.Context, result *types.BatchResult, raw []types.RawPaymentRecord) (*types.BatchResult, error) {
	o.deps.State.SetState(state.StateDeduplicating)
	validated, invalid := extraction.ValidateRecords(raw)
	for _, verr := range invalid {
		result.Failures = append(result.Failures, types.DocumentFailure{
			SourceRef: verr.SourceRef,
			Stage:     "validation",
			Error:     verr.Error(),
		})
	}
	result.Summary.RecordsValid = len(validated)

	canonical := deduplication.Deduplicate(validated)
	result.Summary.DuplicatesCollapsed = len(validated) - len(canonical)
	log.Printf("Deduplication collapsed %d records into %d canonical payments",
		len(validated), len(canonical))

	if err := ctx.Err(); err != nil {
		o.deps.State.SetError(err)
		return nil, err
	}

	o.deps.State.SetState(state.StateLoadingDirectory)
	cache, err := directory.Build(ctx, o.deps.Directory)
	if err != nil {
		o.deps.State.SetError(err)
		return nil, fmt.Errorf("loading customer directory: %w", err)
	}
	log.Printf("Customer directory loaded: %d entries", cache.Size())

	o.deps.State.SetState(state.StateMatching)
	records, err := o.matchAndEnrich(ctx, canonical, cache)
	if err != nil {
		o.deps.State.SetError(err)
		return nil, err
	}
	result.Records = records

	for _, rec := range records {
		if rec.Match.Matched {
			result.Summary.RecordsMatched++
		}
	}
	result.FinishedAt = time.Now()

	o.deps.State.SetResult(result)
	log.Printf("Run %s finished: %d canonical records, %d matched, %d failures",
		result.RunID, len(result.Records), result.Summary.RecordsMatched, len(result.Failures))
	return result, nil
}

// extractAll runs document extraction with bounded concurrency. A failed
// document becomes a DocumentFailure; it never aborts the batch.
func (o *Orchestrator) extractAll(ctx context.Context, docs []types.Document) ([]types.RawPaymentRecord, []types.DocumentFailure) {
	perDoc := make([][]types.RawPaymentRecord, len(docs))
	perDocErr := make([]error, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxConcurrentExtractions)
	for i, doc := range docs {
		g.Go(func() error {
			records, err := o.extractWithRetry(gctx, doc)
			if err != nil {
				perDocErr[i] = err
				return nil
			}
			perDoc[i] = records
			return nil
		})
	}
	// Workers never return errors, so Wait only reflects ctx state.
	_ = g.Wait()

	var raw []types.RawPaymentRecord
	var failures []types.DocumentFailure
	for i, doc := range docs {
		if perDocErr[i] != nil {
			log.Printf("Document %s failed extraction: %v", doc.ID, perDocErr[i])
			failures = append(failures, types.DocumentFailure{
				SourceRef: doc.ID,
				Stage:     "extraction",
				Error:     perDocErr[i].Error(),
			})
			continue
		}
		raw = append(raw, perDoc[i]...)
	}
	return raw, failures
}

func (o *Orchestrator) matchAndEnrich(ctx context.Context, canonical []*types.CanonicalPaymentRecord, cache *directory.Cache) ([]types.EnrichedRecord, error) {
	records := make([]types.EnrichedRecord, len(canonical))

	// The cache is read-only after Build, so workers share it freely.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.MaxConcurrentMatches)
	for i, rec := range canonical {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			matchResult := o.matcher.Match(rec, cache)
			enriched := enrich.Enrich(rec, matchResult)
			if o.deps.Posted != nil {
				posted, err := o.deps.Posted.WasPosted(gctx, rec.Identity)
				if err != nil {
					log.Printf("Posted-register lookup failed for %s: %v", rec.Identity.Key(), err)
				} else {
					enriched.AlreadyPosted = posted
				}
			}
			records[i] = enriched
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}
