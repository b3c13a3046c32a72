package authkit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestForgotPasswordIssuesToken(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	confirmedUser(t, te, "alice@example.com")
	token := resetToken(t, te, "alice@example.com")

	stored, err := te.store.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if stored.PasswordChange == nil || stored.PasswordChange.Used {
		t.Fatal("expected an outstanding password-change token")
	}
	if !stored.PasswordChange.Token.Equal(token) {
		t.Fatal("notification token does not match the stored record")
	}
}

func TestForgotPasswordFailures(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	signUpUser(t, te, "bob@example.com")

	if err := te.engine.ForgotPassword(ctx, ""); !errors.Is(err, ErrNoEmailGiven) {
		t.Fatalf("empty email: expected ErrNoEmailGiven, got %v", err)
	}
	if err := te.engine.ForgotPassword(ctx, "nobody@example.com"); !errors.Is(err, ErrEmailNotFound) {
		t.Fatalf("unknown email: expected ErrEmailNotFound, got %v", err)
	}
	if err := te.engine.ForgotPassword(ctx, "bob@example.com"); !errors.Is(err, ErrEmailNotConfirmed) {
		t.Fatalf("unverified account: expected ErrEmailNotConfirmed, got %v", err)
	}
}

func TestForgotPasswordReissueInvalidatesOldToken(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	confirmedUser(t, te, "alice@example.com")
	oldToken := resetToken(t, te, "alice@example.com")
	newToken := resetToken(t, te, "alice@example.com")

	if oldToken.Equal(newToken) {
		t.Fatal("expected reissue to mint a fresh token")
	}

	err := te.engine.ResetPassword(ctx, ResetPasswordRequest{
		Email:                   "alice@example.com",
		Token:                   oldToken,
		NewPassword:             "Password2",
		NewPasswordConfirmation: "Password2",
	})
	if !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("stale token: expected ErrTokenMismatch, got %v", err)
	}
}

func TestResetPasswordSuccess(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	confirmedUser(t, te, "alice@example.com")

	login, err := te.engine.Login(ctx, "alice@example.com", "Password1")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	token := resetToken(t, te, "alice@example.com")
	err = te.engine.ResetPassword(ctx, ResetPasswordRequest{
		Email:                   "alice@example.com",
		Token:                   token,
		NewPassword:             "Password2",
		NewPasswordConfirmation: "Password2",
	})
	if err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if _, err := te.engine.Login(ctx, "alice@example.com", "Password1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected old password to stop working, got %v", err)
	}
	if _, err := te.engine.Login(ctx, "alice@example.com", "Password2"); err != nil {
		t.Fatalf("new password login failed: %v", err)
	}

	// The pre-reset session is revoked.
	if _, err := te.engine.ValidateSession(ctx, login.SessionToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected pre-reset session to be revoked, got %v", err)
	}

	// The consumed link cannot be replayed.
	err = te.engine.ResetPassword(ctx, ResetPasswordRequest{
		Email:                   "alice@example.com",
		Token:                   token,
		NewPassword:             "Password3",
		NewPasswordConfirmation: "Password3",
	})
	if !errors.Is(err, ErrLinkAlreadyUsed) {
		t.Fatalf("replay: expected ErrLinkAlreadyUsed, got %v", err)
	}
}

func TestResetPasswordRejectionsLeaveTokenValid(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	confirmedUser(t, te, "alice@example.com")
	token := resetToken(t, te, "alice@example.com")

	cases := []struct {
		name string
		req  ResetPasswordRequest
		want error
	}{
		{"missing password", ResetPasswordRequest{Email: "alice@example.com", Token: token}, ErrNoPasswordProvided},
		{"mismatched confirmation", ResetPasswordRequest{Email: "alice@example.com", Token: token, NewPassword: "Password2", NewPasswordConfirmation: "Password3"}, ErrPasswordMismatch},
		{"weak replacement", ResetPasswordRequest{Email: "alice@example.com", Token: token, NewPassword: "weak", NewPasswordConfirmation: "weak"}, ErrPasswordTooWeak},
	}
	for _, tc := range cases {
		if err := te.engine.ResetPassword(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	// Every rejection above happened before consumption; the same link
	// still completes.
	err := te.engine.ResetPassword(ctx, ResetPasswordRequest{
		Email:                   "alice@example.com",
		Token:                   token,
		NewPassword:             "Password2",
		NewPasswordConfirmation: "Password2",
	})
	if err != nil {
		t.Fatalf("ResetPassword failed after rejected attempts: %v", err)
	}
}

func TestResetPasswordValidationOrder(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	confirmedUser(t, te, "alice@example.com")
	token := resetToken(t, te, "alice@example.com")

	cases := []struct {
		name string
		req  ResetPasswordRequest
		want error
	}{
		{"missing email", ResetPasswordRequest{Token: token, NewPassword: "Password2", NewPasswordConfirmation: "Password2"}, ErrNoEmailGiven},
		{"missing token", ResetPasswordRequest{Email: "alice@example.com", NewPassword: "Password2", NewPasswordConfirmation: "Password2"}, ErrNoTokenGiven},
		{"unknown email", ResetPasswordRequest{Email: "nobody@example.com", Token: token, NewPassword: "Password2", NewPasswordConfirmation: "Password2"}, ErrEmailNotFound},
		{"wrong token outranks missing password", ResetPasswordRequest{Email: "alice@example.com", Token: "garbage"}, ErrTokenMismatch},
	}
	for _, tc := range cases {
		if err := te.engine.ResetPassword(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestResetPasswordRequiresConfirmedEmail(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	signUpUser(t, te, "alice@example.com")

	// Plant an outstanding reset record directly: ForgotPassword refuses
	// unverified accounts, but a record can also exist because the account
	// was un-verified after issuance.
	user, err := te.store.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	user.PasswordChange = &TokenRecord{Token: "planted", CreatedAt: time.Now()}
	if _, err := te.store.Update(ctx, user); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	err = te.engine.ResetPassword(ctx, ResetPasswordRequest{
		Email:                   "alice@example.com",
		Token:                   "planted",
		NewPassword:             "Password2",
		NewPasswordConfirmation: "Password2",
	})
	if !errors.Is(err, ErrEmailNotConfirmed) {
		t.Fatalf("expected ErrEmailNotConfirmed, got %v", err)
	}

	if err := te.engine.CheckPasswordResetToken(ctx, "alice@example.com", "planted"); !errors.Is(err, ErrEmailNotConfirmed) {
		t.Fatalf("check: expected ErrEmailNotConfirmed, got %v", err)
	}

	// The guard runs last: a wrong value still reports as a mismatch.
	if err := te.engine.CheckPasswordResetToken(ctx, "alice@example.com", "garbage"); !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("wrong token: expected ErrTokenMismatch, got %v", err)
	}

	stored, err := te.store.FindByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail failed: %v", err)
	}
	if stored.PasswordChange.Used {
		t.Fatal("rejected presentation must not consume the token")
	}
}

func TestResetPasswordUnrequested(t *testing.T) {
	te := newTestEngine(t, nil)

	confirmedUser(t, te, "alice@example.com")

	err := te.engine.ResetPassword(context.Background(), ResetPasswordRequest{
		Email:                   "alice@example.com",
		Token:                   "never-issued",
		NewPassword:             "Password2",
		NewPasswordConfirmation: "Password2",
	})
	if !errors.Is(err, ErrLinkAlreadyUsed) {
		t.Fatalf("no outstanding token: expected ErrLinkAlreadyUsed, got %v", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	te := newTestEngine(t, func(cfg *Config) {
		cfg.Token.PasswordChangeTTL = time.Millisecond
	})

	confirmedUser(t, te, "alice@example.com")
	token := resetToken(t, te, "alice@example.com")
	time.Sleep(5 * time.Millisecond)

	err := te.engine.ResetPassword(context.Background(), ResetPasswordRequest{
		Email:                   "alice@example.com",
		Token:                   token,
		NewPassword:             "Password2",
		NewPasswordConfirmation: "Password2",
	})
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestCheckPasswordResetTokenDoesNotConsume(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	confirmedUser(t, te, "alice@example.com")
	token := resetToken(t, te, "alice@example.com")

	for i := 0; i < 3; i++ {
		if err := te.engine.CheckPasswordResetToken(ctx, "alice@example.com", token); err != nil {
			t.Fatalf("check %d failed: %v", i, err)
		}
	}

	err := te.engine.ResetPassword(ctx, ResetPasswordRequest{
		Email:                   "alice@example.com",
		Token:                   token,
		NewPassword:             "Password2",
		NewPasswordConfirmation: "Password2",
	})
	if err != nil {
		t.Fatalf("ResetPassword failed after checks: %v", err)
	}

	if err := te.engine.CheckPasswordResetToken(ctx, "alice@example.com", token); !errors.Is(err, ErrLinkAlreadyUsed) {
		t.Fatalf("expected ErrLinkAlreadyUsed after consumption, got %v", err)
	}
}

func TestResetPasswordConcurrentPresentations(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	confirmedUser(t, te, "alice@example.com")
	token := resetToken(t, te, "alice@example.com")

	const presenters = 8
	results := make([]error, presenters)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(presenters)
	for i := 0; i < presenters; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			results[i] = te.engine.ResetPassword(ctx, ResetPasswordRequest{
				Email:                   "alice@example.com",
				Token:                   token,
				NewPassword:             "Password2",
				NewPasswordConfirmation: "Password2",
			})
		}(i)
	}
	start.Done()
	done.Wait()

	var wins int
	for i, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrLinkAlreadyUsed):
		default:
			t.Fatalf("presenter %d: unexpected error %v", i, err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning reset, got %d", wins)
	}

	if _, err := te.engine.Login(ctx, "alice@example.com", "Password2"); err != nil {
		t.Fatalf("post-race login failed: %v", err)
	}
}
