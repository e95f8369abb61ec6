package rules

import (
	"errors"
	"regexp"
	"strings"
)

var (
	credentialNumberPattern = regexp.MustCompile(`^WWC\d{7}[A-Z]$`)
	mobilePattern           = regexp.MustCompile(`^(?:\+?61|0)4\d{8}$`)
	postcodePattern         = regexp.MustCompile(`^\d{4}$`)
	phoneSeparators         = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// australianRegions are the state and territory codes accepted for contact addresses.
var australianRegions = map[string]string{
	"NSW": "NSW", "NEW SOUTH WALES": "NSW",
	"VIC": "VIC", "VICTORIA": "VIC",
	"QLD": "QLD", "QUEENSLAND": "QLD",
	"WA": "WA", "WESTERN AUSTRALIA": "WA",
	"SA": "SA", "SOUTH AUSTRALIA": "SA",
	"TAS": "TAS", "TASMANIA": "TAS",
	"ACT": "ACT", "AUSTRALIAN CAPITAL TERRITORY": "ACT",
	"NT": "NT", "NORTHERN TERRITORY": "NT",
}

var (
	ErrInvalidCredentialNumber = errors.New("credential number must look like WWC1234567A")
	ErrInvalidMobile           = errors.New("phone must be an Australian mobile number")
	ErrInvalidPostcode         = errors.New("postcode must be 4 digits")
	ErrInvalidRegion           = errors.New("region must be an Australian state or territory")
	ErrUnsupportedCountry      = errors.New("only Australian addresses are supported")
)

// NormalizeCredentialNumber uppercases and strips whitespace before checking the format.
func NormalizeCredentialNumber(value string) (string, error) {
	n := strings.ToUpper(strings.Join(strings.Fields(value), ""))
	if !credentialNumberPattern.MatchString(n) {
		return "", ErrInvalidCredentialNumber
	}
	return n, nil
}

// NormalizeMobile validates an Australian mobile number and returns it as +614XXXXXXXX.
func NormalizeMobile(value string) (string, error) {
	p := phoneSeparators.Replace(strings.TrimSpace(value))
	if !mobilePattern.MatchString(p) {
		return "", ErrInvalidMobile
	}
	subscriber := p[len(p)-9:]
	return "+61" + subscriber, nil
}

func ValidatePostcode(value string) (string, error) {
	p := strings.TrimSpace(value)
	if !postcodePattern.MatchString(p) {
		return "", ErrInvalidPostcode
	}
	return p, nil
}

// NormalizeRegion maps a state name or code to its short code.
func NormalizeRegion(value string) (string, error) {
	code, ok := australianRegions[strings.ToUpper(strings.Join(strings.Fields(value), " "))]
	if !ok {
		return "", ErrInvalidRegion
	}
	return code, nil
}

// NormalizeCountry accepts Australia under any of its known spellings.
func NormalizeCountry(value string) (string, error) {
	if country, ok := CanonicalCountry(value); ok && country == "AU" {
		return "Australia", nil
	}
	return "", ErrUnsupportedCountry
}
