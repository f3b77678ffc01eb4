package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"donorflow/extraction"
	"donorflow/types"
)

// extractWithRetry calls the extraction service with exponential backoff
// on transient failures. Permanent failures and exhausted retries wrap
// the last error in an ExtractionError.
func (o *Orchestrator) extractWithRetry(ctx context.Context, doc types.Document) ([]types.RawPaymentRecord, error) {
	delay := o.cfg.RetryBaseDelay
	var lastErr error

	for attempt := 1; attempt <= o.cfg.MaxExtractionAttempts; attempt++ {
		records, err := o.deps.Extractor.ExtractDocument(ctx, doc)
		if err == nil {
			return records, nil
		}
		lastErr = err

		if !extraction.IsTransient(err) {
			return nil, &types.ExtractionError{SourceRef: doc.ID, Err: err}
		}
		if attempt == o.cfg.MaxExtractionAttempts {
			break
		}

		log.Printf("Transient extraction failure for %s (attempt %d/%d), retrying in %s: %v",
			doc.ID, attempt, o.cfg.MaxExtractionAttempts, delay, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}

	return nil, &types.ExtractionError{
		SourceRef: doc.ID,
		Err:       fmt.Errorf("after %d attempts: %w", o.cfg.MaxExtractionAttempts, lastErr),
	}
}
