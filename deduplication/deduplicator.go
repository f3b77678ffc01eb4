// Package deduplication collapses raw extracted records that describe the
// same real-world payment into one canonical record. The same check often
// arrives twice: once from the check image and once from its envelope or a
// ledger line.
package deduplication

import (
	"log"

	"donorflow/types"
)

// Deduplicate groups validated records by payment identity and merges
// each group into a single canonical record. It is a single synchronous
// pass over the whole batch: merge correctness requires seeing every
// record at once. Output order follows first appearance of each identity.
func Deduplicate(records []types.ValidatedRecord) []*types.CanonicalPaymentRecord {
	groups := make(map[string][]types.ValidatedRecord, len(records))
	order := make([]string, 0, len(records))

	for _, rec := range records {
		key := rec.Keys.Identity.Key()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rec)
	}

	out := make([]*types.CanonicalPaymentRecord, 0, len(order))
	for _, key := range order {
		group := groups[key]
		canonical := mergeGroup(group)
		if len(group) > 1 {
			log.Printf("Merged %d records for payment %s (sources: %d)",
				len(group), key, len(canonical.SourceRefs))
		}
		out = append(out, canonical)
	}

	return out
}
