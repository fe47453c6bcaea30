// Package payment validates the shape and expiry of card payment instruments.
// Cards are never charged here.
package payment

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"kart-checkout/internal/model"
)

var (
	cardNumberPattern = regexp.MustCompile(`^[0-9]{16}$`)
	cvvPattern        = regexp.MustCompile(`^[0-9]{3}$`)
	expirationPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/([0-9]{2})$`)
)

// Validate checks every field of the instrument and returns a *model.PaymentError
// listing each failing field. Within a field only the first failure is reported,
// so an expiration that is malformed is never also reported as expired.
func Validate(p *model.PaymentInstrument, now time.Time) error {
	if p == nil {
		return &model.PaymentError{Violations: []model.FieldViolation{
			{Field: "payment", Reason: "is required"},
		}}
	}

	var violations []model.FieldViolation
	add := func(field, reason string) {
		violations = append(violations, model.FieldViolation{Field: field, Reason: reason})
	}

	switch {
	case p.CardNumber == "":
		add("cardNumber", "is required")
	case !cardNumberPattern.MatchString(p.CardNumber):
		add("cardNumber", "must be exactly 16 digits")
	}

	switch {
	case p.CVV == "":
		add("cvv", "is required")
	case !cvvPattern.MatchString(p.CVV):
		add("cvv", "must be exactly 3 digits")
	}

	switch {
	case strings.TrimSpace(p.HolderName) == "":
		add("holderName", "is required")
	case strings.IndexFunc(p.HolderName, unicode.IsDigit) >= 0:
		add("holderName", "must not contain digits")
	}

	switch {
	case p.Expiration == "":
		add("expiration", "is required")
	case !expirationPattern.MatchString(p.Expiration):
		add("expiration", "must match MM/YY")
	default:
		if ExpiresAt(p.Expiration).Before(now) {
			add("expiration", "card has expired")
		}
	}

	if len(violations) > 0 {
		return &model.PaymentError{Violations: violations}
	}
	return nil
}

// ExpiresAt returns the last instant of the month named by an MM/YY string.
// The input must already match the MM/YY pattern.
func ExpiresAt(expiration string) time.Time {
	m := expirationPattern.FindStringSubmatch(expiration)
	month := int(m[1][0]-'0')*10 + int(m[1][1]-'0')
	year := 2000 + int(m[2][0]-'0')*10 + int(m[2][1]-'0')

	firstOfNext := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.Add(-time.Nanosecond)
}
