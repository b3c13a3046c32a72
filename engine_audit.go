package authkit

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSignUp         = "sign_up"
	auditEventLoginSuccess   = "login_success"
	auditEventLoginFailure   = "login_failure"
	auditEventEmailCheck     = "email_check"
	auditEventPasswordForgot = "password_forgot"
	auditEventPasswordReset  = "password_reset"
	auditEventLogoutSession  = "logout_session"
	auditEventLogoutAll      = "logout_all"
)

// AuditErrorCode is the stable reason string recorded on failed events.
type AuditErrorCode string

const (
	auditErrValidation         AuditErrorCode = "validation"
	auditErrPasswordTooWeak    AuditErrorCode = "password_too_weak"
	auditErrEmailTaken         AuditErrorCode = "email_taken"
	auditErrUnauthorized       AuditErrorCode = "unauthorized"
	auditErrEmailNotConfirmed  AuditErrorCode = "email_not_confirmed"
	auditErrNoEmailGiven       AuditErrorCode = "no_email_given"
	auditErrNoTokenGiven       AuditErrorCode = "no_token_given"
	auditErrEmailNotFound      AuditErrorCode = "email_not_found"
	auditErrLinkAlreadyUsed    AuditErrorCode = "link_already_used"
	auditErrTokenMismatch      AuditErrorCode = "token_mismatch"
	auditErrTokenExpired       AuditErrorCode = "token_expired"
	auditErrNoPasswordProvided AuditErrorCode = "no_password_provided"
	auditErrPasswordMismatch   AuditErrorCode = "password_mismatch"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	email string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		Email:     email,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrPasswordTooWeak):
		return auditErrPasswordTooWeak
	case errors.Is(err, ErrEmailTaken):
		return auditErrEmailTaken
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrEmailNotConfirmed):
		return auditErrEmailNotConfirmed
	case errors.Is(err, ErrNoEmailGiven):
		return auditErrNoEmailGiven
	case errors.Is(err, ErrNoTokenGiven):
		return auditErrNoTokenGiven
	case errors.Is(err, ErrEmailNotFound):
		return auditErrEmailNotFound
	case errors.Is(err, ErrLinkAlreadyUsed):
		return auditErrLinkAlreadyUsed
	case errors.Is(err, ErrTokenMismatch):
		return auditErrTokenMismatch
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrNoPasswordProvided):
		return auditErrNoPasswordProvided
	case errors.Is(err, ErrPasswordMismatch):
		return auditErrPasswordMismatch
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
