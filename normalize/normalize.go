// Package normalize canonicalizes raw extracted identifiers into
// comparable forms. All functions are pure; validation decides what to do
// with failures.
package normalize

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"donorflow/types"
)

// FieldError reports which extracted field failed normalization.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string { return fmt.Sprintf("%s: %v", e.Field, e.Err) }

func (e *FieldError) Unwrap() error { return e.Err }

// CheckNumber strips leading zeros from check numbers of four or more
// digits. Shorter numbers keep their padding: short numeric check numbers
// are often legitimately zero-padded by account conventions.
func CheckNumber(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return s
	}
	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// ZIP truncates to the 5-character prefix. ZIP is a text identifier, not
// a number; leading zeros are preserved.
func ZIP(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

// State upper-cases a 2-letter state code.
func State(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Amount parses a currency amount to a fixed two-decimal value. A parse
// failure surfaces as an error, never a silent zero.
func Amount(s string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("unparseable amount %q", s)
	}
	return d.Round(2), nil
}

// Name lowers case, strips punctuation, and collapses whitespace. The
// deduplicator and the matcher both compare names in this form.
func Name(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// PhoneDigits reduces a phone number to bare digits, dropping a leading
// US country code.
func PhoneDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits
}

// EmailDomain returns the lower-cased domain part of an email address, or
// "" when there is none.
func EmailDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	at := strings.LastIndex(s, "@")
	if at < 0 || at == len(s)-1 {
		return ""
	}
	return s[at+1:]
}

// dateLayouts covers the formats the extraction service emits.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	time.RFC3339,
}

// Date parses an extracted date string. Empty input is a nil date, not an
// error; presence requirements belong to validation.
func Date(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unparseable date %q", s)
}

// Record derives the comparable key set for one raw record. Check
// references are zero-stripped; online references are used verbatim.
func Record(r types.RawPaymentRecord) (types.NormalizedKeys, error) {
	amount, err := Amount(r.Amount)
	if err != nil {
		return types.NormalizedKeys{}, &FieldError{Field: "amount", Err: err}
	}

	reference := strings.TrimSpace(r.Reference)
	if r.Method == types.PaymentCheck {
		reference = CheckNumber(reference)
	}

	paymentDate, err := Date(r.PaymentDate)
	if err != nil {
		return types.NormalizedKeys{}, &FieldError{Field: "payment_date", Err: err}
	}
	depositDate, err := Date(r.DepositDate)
	if err != nil {
		return types.NormalizedKeys{}, &FieldError{Field: "deposit_date", Err: err}
	}

	return types.NormalizedKeys{
		Identity: types.PaymentIdentity{
			Kind:      r.Method,
			Reference: reference,
			Amount:    amount,
		},
		PaymentDate: paymentDate,
		DepositDate: depositDate,
		State:       State(r.Contact.State),
		ZIP:         ZIP(r.Contact.ZIP),
	}, nil
}
