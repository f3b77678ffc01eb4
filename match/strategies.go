package match

import (
	"strings"

	"donorflow/directory"
	"donorflow/normalize"
	"donorflow/types"
)

const (
	strategyExactName    = "exact-name"
	strategyNameContains = "name-contains"
	strategyNameReversal = "name-reversal"
	strategyTokenOverlap = "token-overlap"
	strategyEmailDomain  = "email-domain"
	strategyPhoneDigits  = "phone-digits"

	// Substring matches on very short names produce junk hits.
	minContainsLength = 5

	// Phone fragments shorter than a local number are not comparable.
	minPhoneDigits = 7

	tokenOverlapMediumRatio = 0.75
	tokenOverlapLowRatio    = 0.5
)

// connectorTokens carry no identity and are ignored for token overlap.
var connectorTokens = map[string]bool{
	"the": true,
	"and": true,
	"of":  true,
	"inc": true,
	"llc": true,
}

// freemailDomains are consumer providers shared by unrelated donors, so
// a domain hit against them means nothing.
var freemailDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"hotmail.com": true,
	"aol.com":     true,
	"outlook.com": true,
}

type strategy struct {
	name       string
	confidence types.Confidence
	apply      func(rec *types.CanonicalPaymentRecord, alias string, cache *directory.Cache) types.MatchResult
}

func defaultStrategies() []strategy {
	return []strategy{
		{name: strategyExactName, confidence: types.ConfidenceHigh, apply: applyExactName},
		{name: strategyNameContains, confidence: types.ConfidenceMedium, apply: applyNameContains},
		{name: strategyNameReversal, confidence: types.ConfidenceMedium, apply: applyNameReversal},
		{name: strategyTokenOverlap, confidence: types.ConfidenceMedium, apply: applyTokenOverlap},
		{name: strategyEmailDomain, confidence: types.ConfidenceMedium, apply: applyEmailDomain},
		{name: strategyPhoneDigits, confidence: types.ConfidenceLow, apply: applyPhoneDigits},
	}
}

func matchResult(entry *types.DirectoryEntry, confidence types.Confidence, name string) types.MatchResult {
	return types.MatchResult{
		Matched:    true,
		Entry:      entry,
		Confidence: confidence,
		Strategy:   name,
	}
}

// bestInBucket picks one entry from an index bucket using the same
// tie-break order the matcher applies across strategies.
func bestInBucket(rec *types.CanonicalPaymentRecord, entries []*types.DirectoryEntry, confidence types.Confidence, name string) types.MatchResult {
	var best types.MatchResult
	for _, entry := range entries {
		candidate := matchResult(entry, confidence, name)
		if betterResult(candidate, best, rec) {
			best = candidate
		}
	}
	return best
}

func applyExactName(rec *types.CanonicalPaymentRecord, alias string, cache *directory.Cache) types.MatchResult {
	norm := normalize.Name(alias)
	if norm == "" {
		return types.MatchResult{}
	}
	entries := cache.ByName(norm)
	if len(entries) == 0 {
		return types.MatchResult{}
	}
	return bestInBucket(rec, entries, types.ConfidenceHigh, strategyExactName)
}

func applyNameContains(rec *types.CanonicalPaymentRecord, alias string, cache *directory.Cache) types.MatchResult {
	norm := normalize.Name(alias)
	if len(norm) < minContainsLength {
		return types.MatchResult{}
	}
	for _, entry := range cache.All() {
		entryName := normalize.Name(entry.DisplayName)
		if entryName == norm {
			continue
		}
		if len(entryName) >= minContainsLength &&
			(strings.Contains(entryName, norm) || strings.Contains(norm, entryName)) {
			return matchResult(entry, types.ConfidenceMedium, strategyNameContains)
		}
	}
	return types.MatchResult{}
}

func applyNameReversal(rec *types.CanonicalPaymentRecord, alias string, cache *directory.Cache) types.MatchResult {
	for _, form := range reversedForms(alias) {
		entries := cache.ByName(form)
		if len(entries) > 0 {
			return bestInBucket(rec, entries, types.ConfidenceMedium, strategyNameReversal)
		}
	}
	return types.MatchResult{}
}

// reversedForms generates name variants that account for "Last, First"
// directory conventions. The alias's own normalized form is excluded;
// that is the exact strategy's job.
func reversedForms(alias string) []string {
	identity := normalize.Name(alias)
	var forms []string
	add := func(form string) {
		if form == "" || form == identity {
			return
		}
		for _, existing := range forms {
			if existing == form {
				return
			}
		}
		forms = append(forms, form)
	}

	// "Collins, Jonelle" -> "jonelle collins"
	if before, after, found := strings.Cut(alias, ","); found {
		add(normalize.Name(strings.TrimSpace(after) + " " + strings.TrimSpace(before)))
	}

	// "Jonelle R. Collins" -> "collins jonelle", initials dropped.
	tokens := strings.Fields(identity)
	var fullTokens []string
	for _, tok := range tokens {
		if len(tok) > 1 {
			fullTokens = append(fullTokens, tok)
		}
	}
	if len(fullTokens) == 2 {
		add(fullTokens[1] + " " + fullTokens[0])
		add(fullTokens[0] + " " + fullTokens[1])
	}
	return forms
}

func applyTokenOverlap(rec *types.CanonicalPaymentRecord, alias string, cache *directory.Cache) types.MatchResult {
	aliasTokens := significantTokens(alias)
	if len(aliasTokens) == 0 {
		return types.MatchResult{}
	}

	var best types.MatchResult
	var bestRatio float64
	for _, entry := range cache.All() {
		entryTokens := significantTokens(entry.DisplayName)
		if len(entryTokens) == 0 {
			continue
		}
		ratio := overlapRatio(aliasTokens, entryTokens)
		if ratio < tokenOverlapLowRatio {
			continue
		}
		confidence := types.ConfidenceLow
		if ratio >= tokenOverlapMediumRatio {
			confidence = types.ConfidenceMedium
		}
		if ratio > bestRatio || (ratio == bestRatio && best.Matched && entry.ID < best.Entry.ID) {
			bestRatio = ratio
			best = matchResult(entry, confidence, strategyTokenOverlap)
		}
	}
	return best
}

func significantTokens(name string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(normalize.Name(name)) {
		if connectorTokens[tok] {
			continue
		}
		tokens[tok] = true
	}
	return tokens
}

// overlapRatio is the shared token count over the smaller set's size, so
// "Harbor Light Mission" still scores well against "Harbor Light
// Mission of Boston".
func overlapRatio(a, b map[string]bool) float64 {
	smaller, larger := a, b
	if len(b) < len(a) {
		smaller, larger = b, a
	}
	shared := 0
	for tok := range smaller {
		if larger[tok] {
			shared++
		}
	}
	return float64(shared) / float64(len(smaller))
}

func applyEmailDomain(rec *types.CanonicalPaymentRecord, alias string, cache *directory.Cache) types.MatchResult {
	if rec.Organization == "" {
		return types.MatchResult{}
	}
	if rec.Contact.Email == "" {
		return types.MatchResult{}
	}
	domain := normalize.EmailDomain(rec.Contact.Email)
	if domain == "" || freemailDomains[domain] {
		return types.MatchResult{}
	}
	entries := cache.ByEmailDomain(domain)
	if len(entries) == 0 {
		return types.MatchResult{}
	}
	return bestInBucket(rec, entries, types.ConfidenceMedium, strategyEmailDomain)
}

func applyPhoneDigits(rec *types.CanonicalPaymentRecord, alias string, cache *directory.Cache) types.MatchResult {
	digits := normalize.PhoneDigits(rec.Contact.Phone)
	if len(digits) < minPhoneDigits {
		return types.MatchResult{}
	}
	entries := cache.ByPhoneDigits(digits)
	if len(entries) == 0 {
		return types.MatchResult{}
	}
	return bestInBucket(rec, entries, types.ConfidenceLow, strategyPhoneDigits)
}
