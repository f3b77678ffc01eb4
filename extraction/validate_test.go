package extraction

import (
	"testing"

	"donorflow/types"
)

func validRaw() types.RawPaymentRecord {
	return types.RawPaymentRecord{
		Method:      types.PaymentCheck,
		Reference:   "0001848",
		Amount:      "50.00",
		PaymentDate: "2026-02-01",
		Aliases:     []string{"Collins, Jonelle"},
		Contact:     types.ContactInfo{State: "ma", ZIP: "02134-9999"},
		SourceRef:   "check-0007.png",
	}
}

func TestValidateRecordAccepts(t *testing.T) {
	v, verr := ValidateRecord(validRaw())
	if verr != nil {
		t.Fatalf("unexpected validation error: %v", verr)
	}
	if v.Keys.Identity.Reference != "1848" {
		t.Errorf("normalized reference = %q; want 1848", v.Keys.Identity.Reference)
	}
	if v.Keys.Identity.Kind != types.PaymentCheck {
		t.Errorf("identity kind = %q", v.Keys.Identity.Kind)
	}
}

func TestValidateRecordRejections(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*types.RawPaymentRecord)
		wantField string
	}{
		{"unknown method", func(r *types.RawPaymentRecord) { r.Method = "wire" }, "method"},
		{"missing reference", func(r *types.RawPaymentRecord) { r.Reference = "  " }, "reference"},
		{"missing payment date", func(r *types.RawPaymentRecord) { r.PaymentDate = "" }, "payment_date"},
		{"unparseable payment date", func(r *types.RawPaymentRecord) { r.PaymentDate = "soon" }, "payment_date"},
		{"no payer names", func(r *types.RawPaymentRecord) { r.Aliases = []string{" "}; r.Organization = "" }, "payer_aliases"},
		{"bad amount", func(r *types.RawPaymentRecord) { r.Amount = "fifty dollars" }, "amount"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			raw := validRaw()
			c.mutate(&raw)
			_, verr := ValidateRecord(raw)
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if verr.Field != c.wantField {
				t.Errorf("field = %q; want %q", verr.Field, c.wantField)
			}
			if verr.SourceRef != raw.SourceRef {
				t.Errorf("source ref = %q; want %q", verr.SourceRef, raw.SourceRef)
			}
		})
	}
}

func TestValidateRecordsSplitsBatch(t *testing.T) {
	good := validRaw()
	bad := validRaw()
	bad.Amount = "??"

	valid, failures := ValidateRecords([]types.RawPaymentRecord{good, bad})
	if len(valid) != 1 {
		t.Fatalf("valid count = %d; want 1", len(valid))
	}
	if len(failures) != 1 {
		t.Fatalf("failure count = %d; want 1", len(failures))
	}
	if failures[0].Field != "amount" {
		t.Errorf("failure field = %q; want amount", failures[0].Field)
	}
}

func TestValidateRecordOrganizationOnlyPayer(t *testing.T) {
	raw := validRaw()
	raw.Aliases = nil
	raw.Organization = "St. Mary's Food Pantry"

	if _, verr := ValidateRecord(raw); verr != nil {
		t.Fatalf("organization-only payer should validate: %v", verr)
	}
}
