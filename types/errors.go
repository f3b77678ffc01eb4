package types

import "fmt"

// ExtractionError reports malformed or incomplete upstream data for one
// document. It is recorded per document and never aborts the batch.
type ExtractionError struct {
	SourceRef string
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.SourceRef, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ValidationError reports a record that failed the pipeline's own
// required-field or type checks after normalization. Same per-document
// treatment as ExtractionError.
type ValidationError struct {
	SourceRef string
	Field     string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record from %s: %s: %s", e.SourceRef, e.Field, e.Reason)
}

// DirectoryUnavailableError means the bulk customer fetch failed.
// Matching cannot proceed without the snapshot, so this is fatal to the
// run rather than a trigger for per-record fallback lookups at scale.
type DirectoryUnavailableError struct {
	Err error
}

func (e *DirectoryUnavailableError) Error() string {
	return fmt.Sprintf("customer directory unavailable: %v", e.Err)
}

func (e *DirectoryUnavailableError) Unwrap() error { return e.Err }
