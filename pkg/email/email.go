// Package email normalizes account email addresses.
package email

import (
	"errors"
	"net/mail"
	"strings"
)

const maxLength = 254

var ErrInvalid = errors.New("a valid email is required")

// Normalize lowercases and trims an address and rejects anything that is not a
// bare address. Display names such as "Jane <jane@example.com>" are rejected.
func Normalize(raw string) (string, error) {
	addr := strings.ToLower(strings.TrimSpace(raw))
	if addr == "" || len(addr) > maxLength {
		return "", ErrInvalid
	}
	parsed, err := mail.ParseAddress(addr)
	if err != nil || parsed.Address != addr || parsed.Name != "" {
		return "", ErrInvalid
	}
	local, domain, ok := strings.Cut(addr, "@")
	if !ok || local == "" || !strings.Contains(domain, ".") {
		return "", ErrInvalid
	}
	return addr, nil
}
