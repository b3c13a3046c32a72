package authkit

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"
)

// Purpose names the flow a token serves.
type Purpose uint8

const (
	// PurposeEmailCheck tokens confirm ownership of the account email.
	PurposeEmailCheck Purpose = iota
	// PurposePasswordChange tokens authorize a password reset.
	PurposePasswordChange
)

func (p Purpose) String() string {
	switch p {
	case PurposeEmailCheck:
		return "emailCheck"
	case PurposePasswordChange:
		return "passwordChange"
	default:
		return "unknown"
	}
}

// Token is an opaque, unguessable credential compared only in constant time.
// The zero value is the absence of a token.
type Token string

// Equal reports whether two tokens carry the same value without leaking the
// position of the first differing byte.
func (t Token) Equal(other Token) bool {
	return subtle.ConstantTimeCompare([]byte(t), []byte(other)) == 1
}

// IsZero reports whether no token value is present.
func (t Token) IsZero() bool {
	return t == ""
}

// TokenRecord is the per-purpose sub-record on a User. Issuing a token for a
// purpose overwrites the whole record; consumption flips Used exactly once.
type TokenRecord struct {
	Token     Token
	CreatedAt time.Time
	Used      bool
}

// Outstanding reports whether the record holds a not-yet-consumed token.
func (r *TokenRecord) Outstanding() bool {
	return r != nil && !r.Used && !r.Token.IsZero()
}

// User is the account record exchanged with the [UserStore]. CredentialHash
// never holds plaintext. Version implements the store's optimistic
// concurrency check: Update succeeds only when the stored version matches
// and increments it atomically.
type User struct {
	ID             string
	Email          string
	FirstName      string
	CredentialHash string
	EmailVerified  bool
	EmailCheck     *TokenRecord
	PasswordChange *TokenRecord
	Version        uint64
	CreatedAt      time.Time
}

func (u *User) tokenRecord(purpose Purpose) *TokenRecord {
	switch purpose {
	case PurposeEmailCheck:
		return u.EmailCheck
	case PurposePasswordChange:
		return u.PasswordChange
	default:
		return nil
	}
}

func (u *User) setTokenRecord(purpose Purpose, record *TokenRecord) {
	switch purpose {
	case PurposeEmailCheck:
		u.EmailCheck = record
	case PurposePasswordChange:
		u.PasswordChange = record
	}
}

// NormalizeEmail folds an email address to its canonical lookup form.
// Identity is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserStore is the persistence contract the Engine operates against. Reads
// must be strongly consistent with prior writes for the same record.
//
// Update must compare the given Version against the stored one, reject the
// write with [ErrVersionConflict] when they differ, and otherwise persist the
// record with Version+1. That check is what makes token consumption and the
// mutation it authorizes atomic per user.
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, user User) (User, error)
}

// SignUpRequest carries the fields of a sign-up intent, already parsed from
// the transport request.
type SignUpRequest struct {
	FirstName string
	Email     string
	Password  string
}

// SignUpResult is returned by [Engine.SignUp]. SessionToken is bound to the
// freshly created identity; the account starts unverified with an
// email-check token outstanding.
type SignUpResult struct {
	User         User
	SessionToken string
}

// LoginResult is returned by [Engine.Login] on success.
type LoginResult struct {
	User         User
	SessionToken string
}

// ConfirmEmailResult is returned by [Engine.ConfirmEmail]. AlreadyConfirmed
// marks the idempotent short-circuit: the address was verified before this
// call and nothing was mutated.
type ConfirmEmailResult struct {
	User             User
	AlreadyConfirmed bool
}

// ResetPasswordRequest carries the fields of a password reset completion.
type ResetPasswordRequest struct {
	Email                   string
	Token                   Token
	NewPassword             string
	NewPasswordConfirmation string
}
