package config

import "time"

// Extraction service constants
const (
	// MaxConcurrentExtractions caps simultaneous in-flight extraction
	// calls to respect the service's rate limit
	MaxConcurrentExtractions = 5

	// MaxExtractionAttempts bounds retries of transient extraction
	// failures before a document is marked failed
	MaxExtractionAttempts = 4

	// ExtractionRetryBaseDelay is the first backoff delay, doubled per
	// attempt
	ExtractionRetryBaseDelay = 500 * time.Millisecond

	// ExtractionTimeout is the per-call timeout for extraction requests
	ExtractionTimeout = 60 * time.Second
)

// Matching constants
const (
	// MaxConcurrentMatches caps concurrent match/enrich workers. The
	// directory cache is read-only during a run, so workers share it
	// without locking.
	MaxConcurrentMatches = 8
)

// Accounting directory constants
const (
	// DirectoryFetchTimeout bounds the single bulk customer fetch
	DirectoryFetchTimeout = 2 * time.Minute

	// DirectoryPageSize is the page size for the bulk customer fetch
	DirectoryPageSize = 1000
)

// Posting register constants
const (
	// PostedKeyPrefix namespaces posted-identity keys in Redis
	PostedKeyPrefix = "donorflow:posted"

	// PostedTTL is how long a posted identity is remembered. Re-runs of
	// the same deposit batch happen within days, not months.
	PostedTTL = 90 * 24 * time.Hour
)
