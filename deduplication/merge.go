package deduplication

import (
	"strings"
	"time"

	"donorflow/normalize"
	"donorflow/types"
)

// mergeGroup merges every record sharing one payment identity. The record
// with the most non-empty fields anchors the merge; the others fill gaps
// field by field, and each contribution is logged for audit. A group of
// size 1 passes through with an empty merge log.
func mergeGroup(group []types.ValidatedRecord) *types.CanonicalPaymentRecord {
	base := 0
	for i := 1; i < len(group); i++ {
		if completeness(group[i].Raw) > completeness(group[base].Raw) {
			base = i
		}
	}

	b := group[base]
	canonical := &types.CanonicalPaymentRecord{
		Identity:      b.Keys.Identity,
		PaymentDate:   b.Keys.PaymentDate,
		DepositDate:   b.Keys.DepositDate,
		DepositMethod: strings.TrimSpace(b.Raw.DepositMethod),
		Memo:          strings.TrimSpace(b.Raw.Memo),
		Organization:  strings.TrimSpace(b.Raw.Organization),
		Salutation:    strings.TrimSpace(b.Raw.Salutation),
		Contact: types.ContactInfo{
			AddressLine1: strings.TrimSpace(b.Raw.Contact.AddressLine1),
			AddressLine2: strings.TrimSpace(b.Raw.Contact.AddressLine2),
			City:         strings.TrimSpace(b.Raw.Contact.City),
			State:        b.Keys.State,
			ZIP:          b.Keys.ZIP,
			Email:        strings.TrimSpace(b.Raw.Contact.Email),
			Phone:        strings.TrimSpace(b.Raw.Contact.Phone),
		},
	}

	// Alias union in order of first appearance across the group.
	seenAliases := make(map[string]struct{})
	for _, rec := range group {
		for _, alias := range rec.Raw.Aliases {
			alias = strings.TrimSpace(alias)
			key := normalize.Name(alias)
			if key == "" {
				continue
			}
			if _, ok := seenAliases[key]; ok {
				continue
			}
			seenAliases[key] = struct{}{}
			canonical.Aliases = append(canonical.Aliases, alias)
		}
	}

	// Source references are concatenated, never dropped.
	seenRefs := make(map[string]struct{})
	for _, rec := range group {
		ref := rec.Raw.SourceRef
		if _, ok := seenRefs[ref]; ok {
			continue
		}
		seenRefs[ref] = struct{}{}
		canonical.SourceRefs = append(canonical.SourceRefs, ref)
	}

	if len(group) == 1 {
		return canonical
	}

	for i, rec := range group {
		if i == base {
			continue
		}
		fillFields(canonical, rec)
	}

	// The earliest non-null date of each kind wins over the base's.
	for i, rec := range group {
		if i == base {
			continue
		}
		if earlier(rec.Keys.PaymentDate, canonical.PaymentDate) {
			canonical.PaymentDate = rec.Keys.PaymentDate
			canonical.MergeLog = append(canonical.MergeLog, types.MergeEntry{
				SourceRef: rec.Raw.SourceRef, Field: "payment_date", Value: strings.TrimSpace(rec.Raw.PaymentDate),
			})
		}
		if earlier(rec.Keys.DepositDate, canonical.DepositDate) {
			canonical.DepositDate = rec.Keys.DepositDate
			canonical.MergeLog = append(canonical.MergeLog, types.MergeEntry{
				SourceRef: rec.Raw.SourceRef, Field: "deposit_date", Value: strings.TrimSpace(rec.Raw.DepositDate),
			})
		}
	}

	canonical.NeedsReview = hasAliasConflict(group)
	return canonical
}

// completeness counts a record's non-empty fields. Most complete wins the
// base slot; earlier records win ties.
func completeness(r types.RawPaymentRecord) int {
	fields := []string{
		r.Memo, r.DepositMethod, r.DepositDate, r.Organization, r.Salutation,
		r.Contact.AddressLine1, r.Contact.AddressLine2, r.Contact.City,
		r.Contact.State, r.Contact.ZIP, r.Contact.Email, r.Contact.Phone,
	}
	count := 0
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			count++
		}
	}
	for _, a := range r.Aliases {
		if strings.TrimSpace(a) != "" {
			count++
		}
	}
	return count
}

// fillFields copies rec's values into fields the canonical record still
// has empty, logging each contribution.
func fillFields(c *types.CanonicalPaymentRecord, rec types.ValidatedRecord) {
	targets := []struct {
		name  string
		dst   *string
		value string
	}{
		{"memo", &c.Memo, rec.Raw.Memo},
		{"deposit_method", &c.DepositMethod, rec.Raw.DepositMethod},
		{"organization", &c.Organization, rec.Raw.Organization},
		{"salutation", &c.Salutation, rec.Raw.Salutation},
		{"address_line1", &c.Contact.AddressLine1, rec.Raw.Contact.AddressLine1},
		{"address_line2", &c.Contact.AddressLine2, rec.Raw.Contact.AddressLine2},
		{"city", &c.Contact.City, rec.Raw.Contact.City},
		{"state", &c.Contact.State, rec.Keys.State},
		{"zip", &c.Contact.ZIP, rec.Keys.ZIP},
		{"email", &c.Contact.Email, rec.Raw.Contact.Email},
		{"phone", &c.Contact.Phone, rec.Raw.Contact.Phone},
	}

	for _, t := range targets {
		value := strings.TrimSpace(t.value)
		if *t.dst != "" || value == "" {
			continue
		}
		*t.dst = value
		c.MergeLog = append(c.MergeLog, types.MergeEntry{
			SourceRef: rec.Raw.SourceRef,
			Field:     t.name,
			Value:     value,
		})
	}
}

func earlier(candidate, current *time.Time) bool {
	return candidate != nil && (current == nil || candidate.Before(*current))
}

// hasAliasConflict reports whether any two records in the group carry
// payer names with no tokens in common: the same check number and amount
// extracted under materially different names. The source data offers no
// deterministic resolution, so the merge is flagged rather than guessed.
func hasAliasConflict(group []types.ValidatedRecord) bool {
	sets := make([]map[string]struct{}, len(group))
	for i, rec := range group {
		sets[i] = payerTokens(rec.Raw)
	}

	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			if disjoint(sets[i], sets[j]) {
				return true
			}
		}
	}
	return false
}

func payerTokens(r types.RawPaymentRecord) map[string]struct{} {
	tokens := make(map[string]struct{})
	names := append([]string{}, r.Aliases...)
	if r.Organization != "" {
		names = append(names, r.Organization)
	}
	for _, name := range names {
		for _, tok := range strings.Fields(normalize.Name(name)) {
			tokens[tok] = struct{}{}
		}
	}
	return tokens
}

func disjoint(a, b map[string]struct{}) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	for tok := range a {
		if _, ok := b[tok]; ok {
			return false
		}
	}
	return true
}
