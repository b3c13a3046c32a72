package authkit

import (
	"fmt"
	"regexp"
)

// emailPattern is deliberately coarse: one non-space local part, an @, and a
// dotted domain. Real deliverability is proven by the verification token,
// not by the format check.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validateEmailFormat(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: %q is not a valid email address", ErrValidation, email)
	}
	return nil
}
