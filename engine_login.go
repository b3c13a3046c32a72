package authkit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Login authenticates an email and password pair and issues a session.
//
// Unknown email and wrong password both come back as [ErrUnauthorized], and
// the unknown-email path still runs one argon2 verification against a dummy
// hash so the two cases cost the same. A correct password on an unverified
// account fails with [ErrEmailNotConfirmed] and no session.
func (e *Engine) Login(ctx context.Context, email, pass string) (LoginResult, error) {
	if e == nil || e.userStore == nil {
		return LoginResult{}, ErrEngineNotReady
	}

	email = NormalizeEmail(email)

	result, err := e.login(ctx, email, pass)
	if err != nil {
		if errors.Is(err, ErrEmailNotConfirmed) {
			e.metricInc(MetricLoginUnverified)
		} else {
			e.metricInc(MetricLoginFailure)
		}
		e.emitAudit(ctx, auditEventLoginFailure, false, "", email, "", err, nil)
		return LoginResult{}, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, result.User.ID, result.User.Email, "", nil, nil)
	return result, nil
}

func (e *Engine) login(ctx context.Context, email, pass string) (LoginResult, error) {
	if email == "" || pass == "" {
		return LoginResult{}, ErrUnauthorized
	}

	user, err := e.userStore.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Burn the same key derivation an existing user would cost.
			_, _ = e.hasher.Verify(pass, e.dummyHash)
			return LoginResult{}, ErrUnauthorized
		}
		return LoginResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	ok, err := e.hasher.Verify(pass, user.CredentialHash)
	if err != nil || !ok {
		return LoginResult{}, ErrUnauthorized
	}

	if !user.EmailVerified {
		return LoginResult{}, ErrEmailNotConfirmed
	}

	if upgraded, err := e.maybeRehash(ctx, user, pass); err == nil {
		user = upgraded
	}

	sessionToken, err := e.issueSession(ctx, user)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{User: user, SessionToken: sessionToken}, nil
}

// maybeRehash re-derives the credential hash when the stored parameters fall
// behind the configured ones. A version conflict or store error leaves the
// old hash in place; the login still succeeds.
//
// The credential is never touched while a reset token is outstanding: the
// hash may only change through sign-up or a completed reset, so the upgrade
// waits for a login after the token is consumed, replaced, or expired.
func (e *Engine) maybeRehash(ctx context.Context, user User, pass string) (User, error) {
	if record := user.PasswordChange; record.Outstanding() &&
		time.Since(record.CreatedAt) <= e.tokenTTL(PurposePasswordChange) {
		return user, nil
	}

	needs, err := e.hasher.NeedsRehash(user.CredentialHash)
	if err != nil || !needs {
		return user, err
	}

	hash, err := e.hasher.Hash(pass)
	if err != nil {
		return user, err
	}

	user.CredentialHash = hash
	return e.userStore.Update(ctx, user)
}
