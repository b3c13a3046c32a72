package password

import (
	"errors"
	"unicode"
)

// MinLength is the smallest password the strength policy accepts.
const MinLength = 8

// ErrTooWeak is returned by [ValidateStrength] for any password failing the
// policy. The policy is all-or-nothing: callers get one combined rejection,
// never a per-rule breakdown.
var ErrTooWeak = errors.New("password needs at least 8 characters, one uppercase letter, one lowercase letter and one digit")

// ValidateStrength checks a raw password against the strength policy:
// length >= 8, at least one uppercase letter, one lowercase letter, and one
// digit. It is a pure function with no side effects.
func ValidateStrength(password string) error {
	var upper, lower, digit bool

	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	if len(password) < MinLength || !upper || !lower || !digit {
		return ErrTooWeak
	}

	return nil
}
