package authkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rvillert/authkit/password"
)

// ForgotPassword issues a password-change token for the account and enqueues
// the reset notification. Re-requesting replaces the outstanding token; only
// the newest one is presentable.
//
// The distinct [ErrEmailNotFound] and [ErrEmailNotConfirmed] failures reveal
// account existence to the caller. Deployments that must not leak that
// signal have to collapse them at the transport layer.
func (e *Engine) ForgotPassword(ctx context.Context, email string) error {
	if e == nil || e.userStore == nil {
		return ErrEngineNotReady
	}

	email = NormalizeEmail(email)

	if err := e.forgotPassword(ctx, email); err != nil {
		e.metricInc(MetricPasswordForgotFailure)
		e.emitAudit(ctx, auditEventPasswordForgot, false, "", email, "", err, nil)
		return err
	}

	e.metricInc(MetricPasswordForgotRequest)
	e.emitAudit(ctx, auditEventPasswordForgot, true, "", email, "", nil, nil)
	return nil
}

func (e *Engine) forgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return ErrNoEmailGiven
	}

	for attempt := 0; attempt < consumeMaxRetries; attempt++ {
		user, err := e.userStore.FindByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, ErrUserNotFound) {
				return ErrEmailNotFound
			}
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		if !user.EmailVerified {
			return ErrEmailNotConfirmed
		}

		token, err := e.issueToken(&user, PurposePasswordChange, time.Now())
		if err != nil {
			return err
		}

		updated, err := e.userStore.Update(ctx, user)
		if err == nil {
			e.enqueueNotification(ctx, TemplatePasswordReset, updated, token)
			return nil
		}
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return fmt.Errorf("%w: too many concurrent updates", ErrStoreUnavailable)
}

// ResetPassword consumes a password-change token and replaces the
// credential. The new password is checked before the token is consumed, so
// a weak or mismatched submission leaves the link valid for another try.
// Success revokes every live session of the account.
func (e *Engine) ResetPassword(ctx context.Context, req ResetPasswordRequest) error {
	if e == nil || e.userStore == nil {
		return ErrEngineNotReady
	}

	email := NormalizeEmail(req.Email)

	if err := e.resetPassword(ctx, req, email); err != nil {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventPasswordReset, false, "", email, "", err, nil)
		return err
	}

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordReset, true, "", email, "", nil, nil)
	return nil
}

func (e *Engine) resetPassword(ctx context.Context, req ResetPasswordRequest, email string) error {
	for attempt := 0; attempt < consumeMaxRetries; attempt++ {
		validation, err := e.checkToken(ctx, PurposePasswordChange, email, req.Token)
		if err != nil {
			return err
		}

		if req.NewPassword == "" {
			return ErrNoPasswordProvided
		}
		if req.NewPassword != req.NewPasswordConfirmation {
			return ErrPasswordMismatch
		}
		if err := password.ValidateStrength(req.NewPassword); err != nil {
			return fmt.Errorf("%w: %v", ErrPasswordTooWeak, err)
		}

		hash, err := e.hasher.Hash(req.NewPassword)
		if err != nil {
			return err
		}

		user := validation.user
		user.CredentialHash = hash
		user.PasswordChange.Used = true

		updated, err := e.userStore.Update(ctx, user)
		if err == nil {
			if err := e.sessionStore.DeleteAllForUser(ctx, updated.ID); err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			e.metricInc(MetricSessionInvalidated)
			return nil
		}
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return ErrLinkAlreadyUsed
}
