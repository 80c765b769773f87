package models

import (
	"strings"

	"github.com/shopspring/decimal"

	"pondok-keuangan/internal/apperr"
)

type namedAmount struct {
	field string
	value decimal.Decimal
}

func validateAmounts(amounts ...namedAmount) error {
	var fields []apperr.FieldError
	for _, a := range amounts {
		if a.value.IsNegative() {
			fields = append(fields, apperr.FieldError{Field: a.field, Error: "must not be negative"})
		}
	}
	if len(fields) > 0 {
		return apperr.Validation("invalid_amount", "amounts must not be negative", fields...)
	}
	return nil
}

// ParseAmount reads a rupiah amount from form input. A leading "Rp" is
// accepted and a comma is the decimal separator. Dots group thousands when
// every group after a dot has exactly three digits, so "1.500" is 1500. A
// lone dot that cannot be a group separator, as in "2500.75", is read as a
// decimal point.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "Rp"), "rp")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, apperr.Validation("invalid_amount", field+" is required",
			apperr.FieldError{Field: field, Error: "required"})
	}
	normalized, ok := normalizeAmount(s)
	if !ok {
		return decimal.Zero, apperr.Validation("invalid_amount", field+" has misplaced separators",
			apperr.FieldError{Field: field, Error: "use 1.500.000 or 1500000,50"})
	}
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, apperr.Validation("invalid_amount", field+" is not a number",
			apperr.FieldError{Field: field, Error: "must be numeric"})
	}
	return d, nil
}

// normalizeAmount rewrites s into the "1234.56" form decimal understands.
func normalizeAmount(s string) (string, bool) {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, hasComma := strings.Cut(s, ",")

	if groups := strings.Split(whole, "."); len(groups) > 1 {
		switch {
		case thousandGroups(groups):
			whole = strings.Join(groups, "")
		case !hasComma && len(groups) == 2:
			return sign + whole, true
		default:
			return "", false
		}
	}
	if hasComma {
		return sign + whole + "." + frac, true
	}
	return sign + whole, true
}

func thousandGroups(groups []string) bool {
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}

// ParseOptionalAmount is ParseAmount returning nil for blank input.
func ParseOptionalAmount(field, raw string) (*decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := ParseAmount(field, raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
