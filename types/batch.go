package types

import "time"

// DocumentKind describes the physical source a document was scanned from.
type DocumentKind string

const (
	DocumentCheck    DocumentKind = "check"
	DocumentEnvelope DocumentKind = "envelope"
	DocumentLedger   DocumentKind = "ledger"
	DocumentCSV      DocumentKind = "csv"
)

// Document is one scanned input awaiting extraction.
type Document struct {
	ID      string       `json:"id"`
	Kind    DocumentKind `json:"kind"`
	Name    string       `json:"name,omitempty"`
	Content []byte       `json:"content"`
}

// DocumentFailure records a per-document error that did not abort the
// batch. The caller decides whether to re-run just the failed subset.
type DocumentFailure struct {
	SourceRef string `json:"source_ref"`
	Stage     string `json:"stage"`
	Error     string `json:"error"`
}

// RunSummary aggregates run-level counts for the posting and UI
// collaborators.
type RunSummary struct {
	FilesProcessed      int `json:"files_processed"`
	RecordsExtracted    int `json:"records_extracted"`
	RecordsValid        int `json:"records_valid"`
	DuplicatesCollapsed int `json:"duplicates_collapsed"`
	RecordsMatched      int `json:"records_matched"`
}

// BatchResult is the full output of one reconciliation run.
type BatchResult struct {
	RunID      string            `json:"run_id"`
	Records    []EnrichedRecord  `json:"records"`
	Failures   []DocumentFailure `json:"failures,omitempty"`
	Summary    RunSummary        `json:"summary"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}
