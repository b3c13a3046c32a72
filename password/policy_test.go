package password

import (
	"errors"
	"testing"
)

func TestValidateStrengthAccepts(t *testing.T) {
	for _, pass := range []string{
		"Password1",
		"Aa345678",
		"sT4ck3d-up-phrase",
		"Ünïcode1X",
		"     A1a", // spaces pad the length but do not disqualify
	} {
		if err := ValidateStrength(pass); err != nil {
			t.Fatalf("password %q: unexpected rejection %v", pass, err)
		}
	}
}

func TestValidateStrengthRejects(t *testing.T) {
	for _, pass := range []string{
		"",
		"Pass1",     // too short
		"password1", // no uppercase
		"PASSWORD1", // no lowercase
		"Passwords", // no digit
		"12345678",  // digits only
	} {
		if err := ValidateStrength(pass); !errors.Is(err, ErrTooWeak) {
			t.Fatalf("password %q: expected ErrTooWeak, got %v", pass, err)
		}
	}
}
