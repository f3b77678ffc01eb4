package types

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentKind discriminates how a payment arrived.
type PaymentKind string

const (
	PaymentCheck  PaymentKind = "check"
	PaymentOnline PaymentKind = "online"
)

// Valid reports whether the kind is one of the known payment kinds.
func (k PaymentKind) Valid() bool {
	return k == PaymentCheck || k == PaymentOnline
}

// PaymentIdentity is the deduplication key. Two records with an equal
// identity describe the same real-world payment and must be merged,
// never posted twice.
type PaymentIdentity struct {
	Kind      PaymentKind     `json:"kind"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
}

// Key returns a stable string form usable as a map key.
func (id PaymentIdentity) Key() string {
	return strings.Join([]string{string(id.Kind), id.Reference, id.Amount.StringFixed(2)}, "|")
}

// ContactInfo carries contact fields for one payer.
type ContactInfo struct {
	AddressLine1 string `json:"address_line1,omitempty"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city,omitempty"`
	State        string `json:"state,omitempty"`
	ZIP          string `json:"zip,omitempty"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
}

// RawPaymentRecord is one structured record produced by the extraction
// service for a single source document. Fields hold the extracted text
// verbatim; normalization happens downstream. Immutable once produced.
type RawPaymentRecord struct {
	Method        PaymentKind `json:"method"`
	Reference     string      `json:"reference"`
	Amount        string      `json:"amount"`
	PaymentDate   string      `json:"payment_date"`
	Memo          string      `json:"memo,omitempty"`
	DepositDate   string      `json:"deposit_date,omitempty"`
	DepositMethod string      `json:"deposit_method,omitempty"`

	// Aliases lists payer name variants in extraction order, most
	// specific first. At least one is required.
	Aliases      []string `json:"payer_aliases"`
	Organization string   `json:"organization,omitempty"`
	Salutation   string   `json:"salutation,omitempty"`

	Contact ContactInfo `json:"contact"`

	// SourceRef identifies the document this record was extracted from.
	SourceRef string `json:"source_ref"`
}

// NormalizedKeys holds the comparable forms of one raw record's
// identifiers, produced by the normalize package.
type NormalizedKeys struct {
	Identity    PaymentIdentity
	PaymentDate *time.Time
	DepositDate *time.Time
	State       string
	ZIP         string
}

// ValidatedRecord pairs a raw record with its normalized keys after the
// pipeline's validation pass.
type ValidatedRecord struct {
	Raw  RawPaymentRecord
	Keys NormalizedKeys
}

// MergeEntry records one field contribution made during deduplication.
type MergeEntry struct {
	SourceRef string `json:"source_ref"`
	Field     string `json:"field"`
	Value     string `json:"value"`
}

// CanonicalPaymentRecord is the result of merging every raw record that
// shares a PaymentIdentity. Created by the deduplicator; only the
// enricher touches it afterwards.
type CanonicalPaymentRecord struct {
	Identity PaymentIdentity `json:"identity"`

	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	DepositDate   *time.Time `json:"deposit_date,omitempty"`
	DepositMethod string     `json:"deposit_method,omitempty"`
	Memo          string     `json:"memo,omitempty"`

	Aliases      []string `json:"payer_aliases"`
	Organization string   `json:"organization,omitempty"`
	Salutation   string   `json:"salutation,omitempty"`

	Contact ContactInfo `json:"contact"`

	// SourceRefs keeps every contributing document reference for audit.
	SourceRefs []string     `json:"source_refs"`
	MergeLog   []MergeEntry `json:"merge_log,omitempty"`

	// NeedsReview marks a merge whose payer names conflicted
	// irreconcilably. The merge still happens; a human confirms it.
	NeedsReview bool `json:"needs_review,omitempty"`
}
