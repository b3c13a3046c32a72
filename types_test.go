package authkit

import (
	"errors"
	"testing"
	"time"
)

func TestTokenEqual(t *testing.T) {
	a := Token("abc")
	if !a.Equal(Token("abc")) {
		t.Fatal("equal values compared unequal")
	}
	if a.Equal(Token("abd")) || a.Equal(Token("ab")) || a.Equal(Token("")) {
		t.Fatal("unequal values compared equal")
	}
	if !Token("").IsZero() || Token("abc").IsZero() {
		t.Fatal("IsZero misreported")
	}
}

func TestTokenRecordOutstanding(t *testing.T) {
	var nilRecord *TokenRecord
	if nilRecord.Outstanding() {
		t.Fatal("nil record reported outstanding")
	}

	record := &TokenRecord{Token: "tok", CreatedAt: time.Now()}
	if !record.Outstanding() {
		t.Fatal("fresh record not outstanding")
	}

	record.Used = true
	if record.Outstanding() {
		t.Fatal("spent record reported outstanding")
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"Alice@Example.COM":   "alice@example.com",
		"  bob@example.com  ": "bob@example.com",
		"":                    "",
	}
	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateEmailFormat(t *testing.T) {
	for _, email := range []string{
		"alice@example.com",
		"a.b+tag@sub.example.co",
	} {
		if err := validateEmailFormat(email); err != nil {
			t.Fatalf("email %q: unexpected rejection %v", email, err)
		}
	}

	for _, email := range []string{
		"",
		"plain",
		"@example.com",
		"alice@",
		"alice@example",
		"alice space@example.com",
	} {
		if err := validateEmailFormat(email); !errors.Is(err, ErrValidation) {
			t.Fatalf("email %q: expected ErrValidation, got %v", email, err)
		}
	}
}

func TestUserTokenRecordAccessors(t *testing.T) {
	user := User{
		EmailCheck:     &TokenRecord{Token: "check"},
		PasswordChange: &TokenRecord{Token: "reset"},
	}

	if got := user.tokenRecord(PurposeEmailCheck); got == nil || !got.Token.Equal("check") {
		t.Fatalf("unexpected email-check record: %+v", got)
	}
	if got := user.tokenRecord(PurposePasswordChange); got == nil || !got.Token.Equal("reset") {
		t.Fatalf("unexpected password-change record: %+v", got)
	}

	user.setTokenRecord(PurposeEmailCheck, nil)
	if user.EmailCheck != nil {
		t.Fatal("setTokenRecord did not clear the email-check record")
	}
}

func TestPurposeString(t *testing.T) {
	if PurposeEmailCheck.String() == PurposePasswordChange.String() {
		t.Fatal("purposes must stringify distinctly")
	}
}
