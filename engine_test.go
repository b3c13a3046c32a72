package authkit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/rvillert/authkit/password"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return mr, rdb
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

type testEngine struct {
	engine   *Engine
	store    *MemoryStore
	notifier *ChannelNotifier
	sink     *ChannelSink
}

func newTestEngine(t *testing.T, mutate func(*Config)) *testEngine {
	t.Helper()

	_, rdb := newTestRedis(t)

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	store := NewMemoryStore()
	notifier := NewChannelNotifier(16)
	sink := NewChannelSink(64)

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(store).
		WithNotifier(notifier).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEngine{engine: engine, store: store, notifier: notifier, sink: sink}
}

// signUpUser registers a user through the public API and returns the
// verification token captured from the notification stream.
func signUpUser(t *testing.T, te *testEngine, email string) (SignUpResult, Token) {
	t.Helper()

	result, err := te.engine.SignUp(context.Background(), SignUpRequest{
		FirstName: "Alice",
		Email:     email,
		Password:  "Password1",
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}

	return result, awaitNotification(t, te, TemplateEmailVerification, email).Token
}

// confirmedUser registers and email-confirms a user.
func confirmedUser(t *testing.T, te *testEngine, email string) User {
	t.Helper()

	_, token := signUpUser(t, te, email)
	result, err := te.engine.ConfirmEmail(context.Background(), email, token)
	if err != nil {
		t.Fatalf("ConfirmEmail failed: %v", err)
	}

	return result.User
}

// resetToken walks the forgot-password flow for a confirmed user and
// returns the captured reset token.
func resetToken(t *testing.T, te *testEngine, email string) Token {
	t.Helper()

	if err := te.engine.ForgotPassword(context.Background(), email); err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}

	return awaitNotification(t, te, TemplatePasswordReset, email).Token
}

// newLegacyHash derives a hash at the minimum allowed cost, below what
// testConfig configures when a test raises the engine's parameters.
func newLegacyHash(pass string) (string, error) {
	hasher, err := password.NewHasher(password.Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		return "", err
	}
	return hasher.Hash(pass)
}

func awaitNotification(t *testing.T, te *testEngine, template Template, to string) Notification {
	t.Helper()

	for {
		select {
		case n := <-te.notifier.Notifications():
			if n.Template == template && n.To == to {
				return n
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s notification to %s", template, to)
		}
	}
}
