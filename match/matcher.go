package match

import (
	"log"

	"donorflow/directory"
	"donorflow/normalize"
	"donorflow/types"
)

// Matcher resolves canonical payment records against the customer
// directory using a fixed sequence of name, email, and phone strategies.
type Matcher struct {
	strategies []strategy
}

func NewMatcher() *Matcher {
	return &Matcher{strategies: defaultStrategies()}
}

// Match finds the best directory entry for the record. Strategies run in
// order; the first medium or high confidence hit wins outright. Low
// confidence hits are kept as candidates and, if nothing stronger turns
// up, returned with the review flag set.
func (m *Matcher) Match(rec *types.CanonicalPaymentRecord, cache *directory.Cache) types.MatchResult {
	aliases := candidateAliases(rec)
	if len(aliases) == 0 {
		return types.MatchResult{}
	}

	var best types.MatchResult
	for _, s := range m.strategies {
		result := bestForStrategy(s, rec, aliases, cache)
		if !result.Matched {
			continue
		}
		if result.Confidence >= types.ConfidenceMedium {
			log.Printf("Matched %q to directory entry %s via %s (%s)",
				rec.Identity.Reference, result.Entry.ID, result.Strategy, result.Confidence)
			return result
		}
		if betterResult(result, best, rec) {
			best = result
		}
	}

	if best.Matched {
		best.NeedsReview = true
		log.Printf("Low-confidence match for %q: directory entry %s via %s flagged for review",
			rec.Identity.Reference, best.Entry.ID, best.Strategy)
	}
	return best
}

// candidateAliases returns the payer names to try, in extraction order,
// with the organization name appended when present.
func candidateAliases(rec *types.CanonicalPaymentRecord) []string {
	aliases := make([]string, 0, len(rec.Aliases)+1)
	seen := make(map[string]bool)
	for _, a := range rec.Aliases {
		norm := normalize.Name(a)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		aliases = append(aliases, a)
	}
	if rec.Organization != "" {
		norm := normalize.Name(rec.Organization)
		if norm != "" && !seen[norm] {
			aliases = append(aliases, rec.Organization)
		}
	}
	return aliases
}

func bestForStrategy(s strategy, rec *types.CanonicalPaymentRecord, aliases []string, cache *directory.Cache) types.MatchResult {
	var best types.MatchResult
	for _, alias := range aliases {
		result := s.apply(rec, alias, cache)
		if !result.Matched {
			continue
		}
		if betterResult(result, best, rec) {
			best = result
		}
	}
	return best
}

// betterResult reports whether candidate should replace current. Ties on
// confidence prefer organization entries when the record names an
// organization, then the shorter display name, then the lower ID so
// repeated runs pick the same entry.
func betterResult(candidate, current types.MatchResult, rec *types.CanonicalPaymentRecord) bool {
	if !candidate.Matched {
		return false
	}
	if !current.Matched {
		return true
	}
	if candidate.Confidence != current.Confidence {
		return candidate.Confidence > current.Confidence
	}
	if rec.Organization != "" {
		candOrg := candidate.Entry.Organization != ""
		currOrg := current.Entry.Organization != ""
		if candOrg != currOrg {
			return candOrg
		}
	}
	candLen := len(candidate.Entry.DisplayName)
	currLen := len(current.Entry.DisplayName)
	if candLen != currLen {
		return candLen < currLen
	}
	return candidate.Entry.ID < current.Entry.ID
}
