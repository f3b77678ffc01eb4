package enrich

import (
	"log"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"donorflow/normalize"
	"donorflow/types"
)

// addressPlaceholders are extraction outputs that mean "no address was
// on the document". They never count as a conflicting address.
var addressPlaceholders = map[string]bool{
	"unknown":              true,
	"n/a":                  true,
	"na":                   true,
	"none":                 true,
	"address not provided": true,
	"not provided":         true,
	"no address":           true,
}

// IsPlaceholderAddress reports whether the extracted address line is
// empty or a known placeholder value.
func IsPlaceholderAddress(line string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(line))
	if trimmed == "" {
		return true
	}
	return addressPlaceholders[trimmed]
}

// Enrich combines a matched record with its directory entry: it decides
// whether the address on file needs updating and merges the extracted
// email and phone into the directory's contact lists. Unmatched records
// pass through with their extracted contact details verbatim.
func Enrich(rec *types.CanonicalPaymentRecord, match types.MatchResult) types.EnrichedRecord {
	enriched := types.EnrichedRecord{
		Record: rec,
		Match:  match,
	}

	if !match.Matched {
		enriched.MatchStatus = types.MatchStatusNew
		if rec.Contact.Email != "" {
			enriched.ContactEmails = []string{rec.Contact.Email}
		}
		if rec.Contact.Phone != "" {
			enriched.ContactPhones = []string{rec.Contact.Phone}
		}
		return enriched
	}

	entry := match.Entry
	enriched.MatchStatus = types.MatchStatusMatched

	if addressDiffers(entry.AddressLine1, rec.Contact.AddressLine1) {
		enriched.AddressNeedsUpdate = true
		enriched.MatchStatus = types.MatchStatusAddressReview
		log.Printf("Address on file for %s differs from extracted address; flagged for review", entry.ID)
	}

	enriched.ContactEmails = mergeValues(entry.Emails, rec.Contact.Email, emailKey)
	enriched.ContactPhones = mergeValues(entry.Phones, rec.Contact.Phone, normalize.PhoneDigits)

	return enriched
}

// addressDiffers reports whether the extracted address is substantively
// different from the directory's address line. A directory entry with no
// address adopts the extracted one silently, and placeholder extractions
// never conflict.
func addressDiffers(existing, extracted string) bool {
	if IsPlaceholderAddress(extracted) {
		return false
	}
	existingNorm := strings.ToLower(strings.TrimSpace(existing))
	if existingNorm == "" {
		return false
	}
	extractedNorm := strings.ToLower(strings.TrimSpace(extracted))
	if existingNorm == extractedNorm {
		return false
	}

	distance := levenshtein.DistanceForStrings(
		[]rune(existingNorm), []rune(extractedNorm), levenshtein.DefaultOptions)
	longer := len([]rune(existingNorm))
	if n := len([]rune(extractedNorm)); n > longer {
		longer = n
	}
	return float64(distance) > 0.5*float64(longer)
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// mergeValues keeps the directory's list and appends the extracted value
// when it is new. keyFn canonicalizes values for comparison so that
// formatting differences do not create duplicates.
func mergeValues(existing []string, extracted string, keyFn func(string) string) []string {
	merged := make([]string, 0, len(existing)+1)
	seen := make(map[string]bool)
	for _, v := range existing {
		key := keyFn(v)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, v)
	}
	if extracted != "" {
		if key := keyFn(extracted); key != "" && !seen[key] {
			merged = append(merged, extracted)
		}
	}
	return merged
}
