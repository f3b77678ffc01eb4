package types

import (
	"encoding/json"
	"fmt"
)

// Confidence is a coarse ordinal summarizing match certainty. It routes
// review decisions; it is not a probability.
type Confidence int

const (
	ConfidenceNone Confidence = iota
	ConfidenceLow
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	default:
		return "none"
	}
}

// MarshalJSON emits the tier name rather than the ordinal.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts the tier name.
func (c *Confidence) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "none":
		*c = ConfidenceNone
	case "low":
		*c = ConfidenceLow
	case "medium":
		*c = ConfidenceMedium
	case "high":
		*c = ConfidenceHigh
	default:
		return fmt.Errorf("unknown confidence tier %q", s)
	}
	return nil
}

// MatchResult is the matcher's verdict for one canonical record.
type MatchResult struct {
	Matched     bool            `json:"matched"`
	Entry       *DirectoryEntry `json:"entry,omitempty"`
	Confidence  Confidence      `json:"confidence"`
	Strategy    string          `json:"strategy,omitempty"`
	NeedsReview bool            `json:"needs_review"`
}

// MatchStatus classifies an enriched record for the posting collaborator.
type MatchStatus string

const (
	MatchStatusNew           MatchStatus = "new"
	MatchStatusMatched       MatchStatus = "matched"
	MatchStatusAddressReview MatchStatus = "matched-address-needs-review"
)

// EnrichedRecord is the pipeline's terminal artifact: a canonical record
// plus its match outcome and reconciled contact fields. This is the
// contract handed to the posting and UI collaborators.
type EnrichedRecord struct {
	Record             *CanonicalPaymentRecord `json:"record"`
	Match              MatchResult             `json:"match"`
	AddressNeedsUpdate bool                    `json:"address_needs_update"`
	ContactEmails      []string                `json:"contact_emails,omitempty"`
	ContactPhones      []string                `json:"contact_phones,omitempty"`
	MatchStatus        MatchStatus             `json:"match_status"`

	// AlreadyPosted is set when the posting register knows this identity
	// from a previous run, so the posting stage can skip re-submission.
	AlreadyPosted bool `json:"already_posted,omitempty"`
}
