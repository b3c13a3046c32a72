package authkit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rvillert/authkit/internal"
	"github.com/rvillert/authkit/jwt"
	"github.com/rvillert/authkit/password"
	"github.com/rvillert/authkit/session"
)

// Engine orchestrates sign-up, log-in, email confirmation, and password
// recovery over the configured collaborators. Instances are built once via
// [Builder.Build] and safe for concurrent use afterwards.
type Engine struct {
	config       Config
	userStore    UserStore
	sessionStore *session.Store
	jwtManager   *jwt.Manager
	hasher       *password.Hasher
	notify       *notifyDispatcher
	audit        *auditDispatcher
	metrics      *Metrics

	// dummyHash is verified against when login hits an unknown email, so
	// the response cost is one key derivation either way.
	dummyHash string
}

// Close flushes and stops the audit and notification dispatchers.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.notify != nil {
		e.notify.Close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped reports how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// NotificationsDropped reports how many notifications were discarded because
// the dispatcher buffer was full.
func (e *Engine) NotificationsDropped() uint64 {
	if e == nil || e.notify == nil {
		return 0
	}
	return e.notify.Dropped()
}

// MetricsSnapshot deep-copies the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// issueSession creates a server-side session for user and returns the signed
// access token bound to it.
func (e *Engine) issueSession(ctx context.Context, user User) (string, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		return "", err
	}

	now := time.Now()
	sess := &session.Session{
		SessionID: sid.String(),
		UserID:    user.ID,
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(e.config.Session.Lifetime).Unix(),
	}

	if err := e.sessionStore.Save(ctx, sess, e.config.Session.Lifetime); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	access, err := e.jwtManager.CreateAccess(user.ID, sess.SessionID)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricSessionCreated)
	return access, nil
}

// ValidateSession parses an access token and checks its session is still
// live. It returns the bound user ID.
func (e *Engine) ValidateSession(ctx context.Context, tokenStr string) (string, error) {
	if e == nil || e.jwtManager == nil || e.sessionStore == nil {
		return "", ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseAccess(tokenStr)
	if err != nil {
		return "", ErrUnauthorized
	}

	sess, err := e.sessionStore.Get(ctx, claims.SID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if sess.UserID != claims.UID {
		return "", ErrUnauthorized
	}

	return sess.UserID, nil
}

// Logout invalidates the session bound to the given access token. An
// already-invalid token is not an error.
func (e *Engine) Logout(ctx context.Context, tokenStr string) error {
	if e == nil || e.jwtManager == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}

	claims, err := e.jwtManager.ParseAccess(tokenStr)
	if err != nil {
		return nil
	}

	if err := e.sessionStore.Delete(ctx, claims.UID, claims.SID); err != nil {
		e.emitAudit(ctx, auditEventLogoutSession, false, claims.UID, "", claims.SID, ErrStoreUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventLogoutSession, true, claims.UID, "", claims.SID, nil, nil)
	return nil
}

// LogoutAll invalidates every session of userID.
func (e *Engine) LogoutAll(ctx context.Context, userID string) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}

	if err := e.sessionStore.DeleteAllForUser(ctx, userID); err != nil {
		e.emitAudit(ctx, auditEventLogoutAll, false, userID, "", "", ErrStoreUnavailable, nil)
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricSessionInvalidated)
	e.emitAudit(ctx, auditEventLogoutAll, true, userID, "", "", nil, nil)
	return nil
}

func (e *Engine) enqueueNotification(ctx context.Context, template Template, user User, token Token) {
	if e == nil || e.notify == nil {
		return
	}

	e.notify.Enqueue(ctx, Notification{
		Template:  template,
		To:        user.Email,
		FirstName: user.FirstName,
		Token:     token,
	})
	e.metricInc(MetricNotificationEnqueued)
}
