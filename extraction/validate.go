package extraction

import (
	"errors"
	"fmt"
	"strings"

	"donorflow/normalize"
	"donorflow/types"
)

// ValidateRecord runs the pipeline's own validation pass over one freshly
// extracted record, independent of whatever the extraction service
// validated upstream. On success it returns the record paired with its
// normalized keys.
func ValidateRecord(r types.RawPaymentRecord) (types.ValidatedRecord, *types.ValidationError) {
	fail := func(field, reason string) (types.ValidatedRecord, *types.ValidationError) {
		return types.ValidatedRecord{}, &types.ValidationError{
			SourceRef: r.SourceRef,
			Field:     field,
			Reason:    reason,
		}
	}

	if !r.Method.Valid() {
		return fail("method", fmt.Sprintf("unknown payment method %q", string(r.Method)))
	}
	if strings.TrimSpace(r.Reference) == "" {
		return fail("reference", "missing")
	}
	if strings.TrimSpace(r.PaymentDate) == "" {
		return fail("payment_date", "missing")
	}
	if !hasAlias(r) {
		return fail("payer_aliases", "at least one payer name is required")
	}

	keys, err := normalize.Record(r)
	if err != nil {
		var fe *normalize.FieldError
		if errors.As(err, &fe) {
			return fail(fe.Field, fe.Err.Error())
		}
		return fail("record", err.Error())
	}

	return types.ValidatedRecord{Raw: r, Keys: keys}, nil
}

// ValidateRecords validates a batch, splitting it into accepted records
// and per-record validation failures. Invalid records are rejected, never
// silently accepted.
func ValidateRecords(records []types.RawPaymentRecord) ([]types.ValidatedRecord, []*types.ValidationError) {
	valid := make([]types.ValidatedRecord, 0, len(records))
	var failures []*types.ValidationError

	for _, r := range records {
		v, verr := ValidateRecord(r)
		if verr != nil {
			failures = append(failures, verr)
			continue
		}
		valid = append(valid, v)
	}

	return valid, failures
}

func hasAlias(r types.RawPaymentRecord) bool {
	for _, a := range r.Aliases {
		if strings.TrimSpace(a) != "" {
			return true
		}
	}
	return strings.TrimSpace(r.Organization) != ""
}
