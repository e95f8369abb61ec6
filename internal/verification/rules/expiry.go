package rules

import (
	"fmt"
	"strings"
	"time"
)

// ExpiryWarningWindow is how close to expiry a credential may be and still pass with a warning.
const ExpiryWarningWindow = 90 * 24 * time.Hour

// ExpiryCheck is the outcome of the expiry policy.
type ExpiryCheck struct {
	Expired bool
	Warning bool
}

// dateLayouts are the formats documents and clients use for dates.
var dateLayouts = []string{
	time.DateOnly,
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2 January 2006",
	"02 January 2006",
	"2 Jan 2006",
	"02 Jan 2006",
}

// ParseDate accepts ISO dates and the day-first formats used on Australian documents.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

// Today truncates now to a UTC calendar day.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EvaluateExpiry applies the expiry policy: before today is a hard failure,
// before today plus the warning window passes with a warning, anything later is clean.
func EvaluateExpiry(expiry, now time.Time) ExpiryCheck {
	today := Today(now)
	day := Today(expiry)
	if day.Before(today) {
		return ExpiryCheck{Expired: true}
	}
	if day.Before(today.Add(ExpiryWarningWindow)) {
		return ExpiryCheck{Warning: true}
	}
	return ExpiryCheck{}
}

// EvaluateExpiryString parses value and applies EvaluateExpiry.
func EvaluateExpiryString(value string, now time.Time) (ExpiryCheck, error) {
	expiry, err := ParseDate(value)
	if err != nil {
		return ExpiryCheck{}, err
	}
	return EvaluateExpiry(expiry, now), nil
}

// ValidateDateOfBirth requires an ISO date strictly before today.
func ValidateDateOfBirth(value string, now time.Time) error {
	dob, err := time.Parse(time.DateOnly, strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("date of birth must be YYYY-MM-DD")
	}
	if !dob.Before(Today(now)) {
		return fmt.Errorf("date of birth must be in the past")
	}
	return nil
}
