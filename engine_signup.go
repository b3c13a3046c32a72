package authkit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rvillert/authkit/password"
)

// SignUp registers a new identity. The account is created unverified with a
// fresh email-check token outstanding, the verification notification is
// enqueued, and a session is issued immediately so the caller can act on the
// account before confirming the address.
//
// Validation order is fixed: first name, email format, email uniqueness,
// password strength. The first failing check wins.
func (e *Engine) SignUp(ctx context.Context, req SignUpRequest) (SignUpResult, error) {
	if e == nil || e.userStore == nil {
		return SignUpResult{}, ErrEngineNotReady
	}

	email := NormalizeEmail(req.Email)

	result, err := e.signUp(ctx, req, email)
	if err != nil {
		e.metricInc(MetricSignUpFailure)
		e.emitAudit(ctx, auditEventSignUp, false, "", email, "", err, nil)
		return SignUpResult{}, err
	}

	e.metricInc(MetricSignUpSuccess)
	e.emitAudit(ctx, auditEventSignUp, true, result.User.ID, result.User.Email, "", nil, nil)
	return result, nil
}

func (e *Engine) signUp(ctx context.Context, req SignUpRequest, email string) (SignUpResult, error) {
	if strings.TrimSpace(req.FirstName) == "" {
		return SignUpResult{}, fmt.Errorf("%w: first name must not be empty", ErrValidation)
	}
	if err := validateEmailFormat(email); err != nil {
		return SignUpResult{}, err
	}

	if _, err := e.userStore.FindByEmail(ctx, email); err == nil {
		return SignUpResult{}, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return SignUpResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := password.ValidateStrength(req.Password); err != nil {
		return SignUpResult{}, fmt.Errorf("%w: %v", ErrPasswordTooWeak, err)
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		return SignUpResult{}, err
	}

	now := time.Now()
	user := User{
		Email:          email,
		FirstName:      strings.TrimSpace(req.FirstName),
		CredentialHash: hash,
		EmailVerified:  false,
		CreatedAt:      now,
	}

	token, err := e.issueToken(&user, PurposeEmailCheck, now)
	if err != nil {
		return SignUpResult{}, err
	}

	created, err := e.userStore.Create(ctx, user)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return SignUpResult{}, ErrEmailTaken
		}
		return SignUpResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.enqueueNotification(ctx, TemplateEmailVerification, created, token)

	sessionToken, err := e.issueSession(ctx, created)
	if err != nil {
		return SignUpResult{}, err
	}

	return SignUpResult{User: created, SessionToken: sessionToken}, nil
}
