package normalize

import (
	"testing"

	"donorflow/types"
)

func TestCheckNumber(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"0049", "49"},
		{"49", "49"},
		{"000123456", "123456"},
		{"012", "012"},
		{"1848", "1848"},
		{"0000", "0"},
		{" 0049 ", "49"},
	}

	for _, c := range cases {
		if got := CheckNumber(c.in); got != c.want {
			t.Errorf("CheckNumber(%q) = %q; want %q", c.in, got, c.want)
		}
	}
}

func TestZIP(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"02134", "02134"},
		{"02134-1234", "02134"},
		{"941031234", "94103"},
		{"561", "561"},
		{"", ""},
	}

	for _, c := range cases {
		if got := ZIP(c.in); got != c.want {
			t.Errorf("ZIP(%q) = %q; want %q", c.in, got, c.want)
		}
	}
}

func TestState(t *testing.T) {
	if got := State(" ma "); got != "MA" {
		t.Errorf("State(\" ma \") = %q; want MA", got)
	}
}

func TestAmount(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"50", "50.00", false},
		{"$1,234.50", "1234.50", false},
		{"50.005", "50.01", false},
		{"", "", true},
		{"fifty", "", true},
		{"$", "", true},
	}

	for _, c := range cases {
		got, err := Amount(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("Amount(%q) expected error, got %s", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Amount(%q) unexpected error: %v", c.in, err)
			continue
		}
		if got.StringFixed(2) != c.want {
			t.Errorf("Amount(%q) = %s; want %s", c.in, got.StringFixed(2), c.want)
		}
	}
}

func TestName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Collins, Jonelle", "collins jonelle"},
		{"  Jonelle   R.  Collins ", "jonelle r collins"},
		{"St. Mary's Food Pantry", "st mary s food pantry"},
		{"", ""},
	}

	for _, c := range cases {
		if got := Name(c.in); got != c.want {
			t.Errorf("Name(%q) = %q; want %q", c.in, got, c.want)
		}
	}
}

func TestPhoneDigits(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"(617) 555-0123", "6175550123"},
		{"+1 617 555 0123", "6175550123"},
		{"617.555.0123", "6175550123"},
		{"", ""},
	}

	for _, c := range cases {
		if got := PhoneDigits(c.in); got != c.want {
			t.Errorf("PhoneDigits(%q) = %q; want %q", c.in, got, c.want)
		}
	}
}

func TestEmailDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Donor@Example.ORG", "example.org"},
		{"no-at-sign", ""},
		{"trailing@", ""},
	}

	for _, c := range cases {
		if got := EmailDomain(c.in); got != c.want {
			t.Errorf("EmailDomain(%q) = %q; want %q", c.in, got, c.want)
		}
	}
}

func TestDate(t *testing.T) {
	got, err := Date("2026-03-15")
	if err != nil || got == nil {
		t.Fatalf("Date(2026-03-15) = %v, %v", got, err)
	}
	if got.Year() != 2026 || got.Month() != 3 || got.Day() != 15 {
		t.Errorf("Date(2026-03-15) parsed as %v", got)
	}

	got, err = Date("03/15/2026")
	if err != nil || got == nil || got.Day() != 15 {
		t.Fatalf("Date(03/15/2026) = %v, %v", got, err)
	}

	got, err = Date("")
	if err != nil || got != nil {
		t.Fatalf("Date(\"\") should be nil, nil; got %v, %v", got, err)
	}

	if _, err := Date("the ides of march"); err == nil {
		t.Error("Date on garbage input should error")
	}
}

func TestRecordNormalizesCheckReference(t *testing.T) {
	raw := types.RawPaymentRecord{
		Method:      types.PaymentCheck,
		Reference:   "0049",
		Amount:      "$50.00",
		PaymentDate: "2026-01-10",
		Aliases:     []string{"Collins, Jonelle"},
		Contact:     types.ContactInfo{State: "ma", ZIP: "02134-1234"},
		SourceRef:   "doc-1",
	}

	keys, err := Record(raw)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if keys.Identity.Reference != "49" {
		t.Errorf("check reference = %q; want 49", keys.Identity.Reference)
	}
	if keys.Identity.Amount.StringFixed(2) != "50.00" {
		t.Errorf("amount = %s; want 50.00", keys.Identity.Amount.StringFixed(2))
	}
	if keys.State != "MA" || keys.ZIP != "02134" {
		t.Errorf("state/zip = %q/%q; want MA/02134", keys.State, keys.ZIP)
	}
	if keys.PaymentDate == nil {
		t.Error("payment date not parsed")
	}
}

func TestRecordOnlineReferenceVerbatim(t *testing.T) {
	raw := types.RawPaymentRecord{
		Method:      types.PaymentOnline,
		Reference:   "00TXN-998",
		Amount:      "25",
		PaymentDate: "2026-01-10",
		Aliases:     []string{"A Donor"},
	}

	keys, err := Record(raw)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if keys.Identity.Reference != "00TXN-998" {
		t.Errorf("online reference = %q; want verbatim 00TXN-998", keys.Identity.Reference)
	}
}

func TestRecordAmountFailure(t *testing.T) {
	raw := types.RawPaymentRecord{
		Method:      types.PaymentCheck,
		Reference:   "100",
		Amount:      "unreadable",
		PaymentDate: "2026-01-10",
	}

	_, err := Record(raw)
	if err == nil {
		t.Fatal("expected error for unparseable amount")
	}
	fe, ok := err.(*FieldError)
	if !ok || fe.Field != "amount" {
		t.Errorf("expected FieldError on amount, got %v", err)
	}
}
