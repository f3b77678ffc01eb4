package common

import (
	"testing"

	"donorflow/types"
)

func TestKindFromKey(t *testing.T) {
	cases := []struct {
		key  string
		want types.DocumentKind
	}{
		{"incoming/2026-08-14/check/scan-001.png", types.DocumentCheck},
		{"incoming/2026-08-14/envelope/scan-002.png", types.DocumentEnvelope},
		{"incoming/2026-08-14/envelopes/scan-003.png", types.DocumentEnvelope},
		{"incoming/2026-08-14/ledger/page-1.pdf", types.DocumentLedger},
		{"incoming/2026-08-14/csv/giving.csv", types.DocumentCSV},
		{"incoming/2026-08-14/giving.CSV", types.DocumentCSV},
		{"incoming/2026-08-14/scan-004.png", types.DocumentCheck},
	}

	for _, c := range cases {
		if got := kindFromKey(c.key); got != c.want {
			t.Errorf("kindFromKey(%q) = %q; want %q", c.key, got, c.want)
		}
	}
}
