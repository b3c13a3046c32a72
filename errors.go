package authkit

import "errors"

// Domain outcomes. Every rejection an Engine operation can produce maps to
// exactly one of these sentinels; transports match with errors.Is and render
// their own status codes. Infrastructure faults (store or session backend
// down) wrap ErrStoreUnavailable and stay outside the domain taxonomy.
var (
	// ErrValidation reports a missing or malformed request field. The wrapped
	// message names the field.
	ErrValidation = errors.New("invalid request field")
	// ErrPasswordTooWeak reports a password failing the strength policy.
	ErrPasswordTooWeak = errors.New("password is not strong enough")
	// ErrEmailTaken reports a sign-up against an already registered email.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrUnauthorized reports a failed login. Unknown email and wrong
	// password deliberately collapse into this one reason so responses do
	// not reveal which accounts exist.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmailNotConfirmed reports an operation that requires a verified
	// email address on an account that has not confirmed one yet. It is
	// actionable, not a fault: the caller should prompt re-confirmation.
	ErrEmailNotConfirmed = errors.New("email is not confirmed")
	// ErrNoEmailGiven reports a token presentation without an email.
	ErrNoEmailGiven = errors.New("no email specified")
	// ErrNoTokenGiven reports a token presentation without a token.
	ErrNoTokenGiven = errors.New("no token specified")
	// ErrEmailNotFound reports a token presentation or password recovery
	// request for an email with no account.
	ErrEmailNotFound = errors.New("no user with this email")
	// ErrLinkAlreadyUsed reports a token that was already consumed, or a
	// purpose with no outstanding token.
	ErrLinkAlreadyUsed = errors.New("link has already been used")
	// ErrTokenMismatch reports a presented token that does not equal the
	// outstanding token for the purpose.
	ErrTokenMismatch = errors.New("token does not match")
	// ErrTokenExpired reports a token presented after its validity window.
	ErrTokenExpired = errors.New("link is outdated")
	// ErrNoPasswordProvided reports a password reset completion without a
	// new password.
	ErrNoPasswordProvided = errors.New("no password provided")
	// ErrPasswordMismatch reports a password reset completion whose
	// confirmation differs from the new password.
	ErrPasswordMismatch = errors.New("password and confirmation are different")

	// ErrUserNotFound is returned by UserStore implementations when no
	// record matches the lookup key.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by UserStore.Create when the email is
	// already registered.
	ErrDuplicateEmail = errors.New("duplicate email")
	// ErrVersionConflict is returned by UserStore.Update when the record
	// version advanced since the caller read it.
	ErrVersionConflict = errors.New("user record version conflict")

	// ErrStoreUnavailable wraps store and session backend failures.
	ErrStoreUnavailable = errors.New("backing store unavailable")
	// ErrEngineNotReady reports an Engine used before Builder.Build wired
	// its collaborators.
	ErrEngineNotReady = errors.New("engine not initialized")
)
