package authkit

import (
	"context"
	"errors"
	"fmt"
)

// ConfirmEmail consumes an email-check token and marks the address
// verified. Both changes commit in one versioned write, so of two
// concurrent presentations of the same link exactly one confirms; the other
// rereads the spent record and fails with [ErrLinkAlreadyUsed].
//
// Presenting any token for an already-verified account succeeds without
// touching stored state; the result carries AlreadyConfirmed.
func (e *Engine) ConfirmEmail(ctx context.Context, email string, token Token) (ConfirmEmailResult, error) {
	if e == nil || e.userStore == nil {
		return ConfirmEmailResult{}, ErrEngineNotReady
	}

	email = NormalizeEmail(email)

	result, err := e.confirmEmail(ctx, email, token)
	if err != nil {
		e.metricInc(MetricEmailCheckFailure)
		e.emitAudit(ctx, auditEventEmailCheck, false, "", email, "", err, nil)
		return ConfirmEmailResult{}, err
	}

	if result.AlreadyConfirmed {
		e.metricInc(MetricEmailCheckAlreadyConfirmed)
	} else {
		e.metricInc(MetricEmailCheckSuccess)
	}
	e.emitAudit(ctx, auditEventEmailCheck, true, result.User.ID, result.User.Email, "", nil, func() map[string]string {
		if !result.AlreadyConfirmed {
			return nil
		}
		return map[string]string{"already_confirmed": "true"}
	})
	return result, nil
}

func (e *Engine) confirmEmail(ctx context.Context, email string, token Token) (ConfirmEmailResult, error) {
	for attempt := 0; attempt < consumeMaxRetries; attempt++ {
		validation, err := e.checkToken(ctx, PurposeEmailCheck, email, token)
		if err != nil {
			return ConfirmEmailResult{}, err
		}
		if validation.alreadyConfirmed {
			return ConfirmEmailResult{User: validation.user, AlreadyConfirmed: true}, nil
		}

		user := validation.user
		user.EmailVerified = true
		user.EmailCheck.Used = true

		updated, err := e.userStore.Update(ctx, user)
		if err == nil {
			return ConfirmEmailResult{User: updated}, nil
		}
		if errors.Is(err, ErrVersionConflict) {
			// Someone else moved the record. Revalidate against the fresh
			// state; a racing confirmation of the same link will now read
			// back as used.
			continue
		}
		return ConfirmEmailResult{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return ConfirmEmailResult{}, ErrLinkAlreadyUsed
}
