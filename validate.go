package authkit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// consumeMaxRetries bounds the version-conflict retry loop shared by every
// flow that validates and then commits a user mutation.
const consumeMaxRetries = 4

// tokenValidation is the outcome of a successful checkToken call.
type tokenValidation struct {
	user User

	// alreadyConfirmed is set for email-check validations that short-circuit
	// because the account is verified. No token state was inspected.
	alreadyConfirmed bool
}

// checkToken runs the ordered validation chain for a presented link. The
// check order is fixed: missing inputs, unknown email, verified-account
// short-circuit, spent or absent record, value mismatch, expiry, and for
// password changes an unverified-account guard. Each step fails before any
// later step is evaluated, so a spent link reports as used even when it is
// also expired. checkToken never mutates the user; consuming the token is
// the caller's job.
func (e *Engine) checkToken(ctx context.Context, purpose Purpose, email string, token Token) (tokenValidation, error) {
	if email == "" {
		return tokenValidation{}, ErrNoEmailGiven
	}
	if token.IsZero() {
		return tokenValidation{}, ErrNoTokenGiven
	}

	user, err := e.userStore.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return tokenValidation{}, ErrEmailNotFound
		}
		return tokenValidation{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if purpose == PurposeEmailCheck && user.EmailVerified {
		return tokenValidation{user: user, alreadyConfirmed: true}, nil
	}

	record := user.tokenRecord(purpose)
	if record == nil || record.Used {
		return tokenValidation{}, ErrLinkAlreadyUsed
	}

	if !record.Token.Equal(token) {
		return tokenValidation{}, ErrTokenMismatch
	}

	if time.Since(record.CreatedAt) > e.tokenTTL(purpose) {
		return tokenValidation{}, ErrTokenExpired
	}

	if purpose == PurposePasswordChange && !user.EmailVerified {
		return tokenValidation{}, ErrEmailNotConfirmed
	}

	return tokenValidation{user: user}, nil
}

// CheckPasswordResetToken verifies a reset link without consuming it, for
// rendering the reset form before the user submits a new password. The
// token stays valid afterwards.
func (e *Engine) CheckPasswordResetToken(ctx context.Context, email string, token Token) error {
	if e == nil || e.userStore == nil {
		return ErrEngineNotReady
	}

	_, err := e.checkToken(ctx, PurposePasswordChange, email, token)
	return err
}
