package kafka

import (
	"context"
	"encoding/json"
	"log"
)

// BatchEvent announces that a batch of scanned documents finished
// uploading to the document store and is ready for reconciliation.
type BatchEvent struct {
	BatchID  string `json:"batchId"`
	Bucket   string `json:"bucket"`
	Prefix   string `json:"prefix"`
	Uploaded int    `json:"uploaded"`
}

// BatchRunner starts a reconciliation run over the documents under a
// bucket prefix.
type BatchRunner interface {
	RunBatch(ctx context.Context, bucket, prefix string) error
}

// BatchEventHandler consumes batch-uploaded events and triggers runs.
// Malformed or incomplete events are marked and skipped; runner failures
// leave the message unmarked so it is retried.
type BatchEventHandler struct {
	Runner BatchRunner
}

func (h *BatchEventHandler) HandleMessage(ctx context.Context, message []byte) (bool, error) {
	var event BatchEvent
	if err := json.Unmarshal(message, &event); err != nil {
		log.Printf("❌ Failed to unmarshal batch event, skipping: %v", err)
		return true, nil
	}

	if event.Bucket == "" || event.Prefix == "" {
		log.Printf("❌ Batch event %q missing bucket or prefix, skipping", event.BatchID)
		return true, nil
	}

	log.Printf("Batch event %q: %d documents under s3://%s/%s",
		event.BatchID, event.Uploaded, event.Bucket, event.Prefix)
	if err := h.Runner.RunBatch(ctx, event.Bucket, event.Prefix); err != nil {
		return false, err
	}
	return true, nil
}
