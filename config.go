package authkit

import (
	"errors"
	"time"

	"github.com/rvillert/authkit/password"
)

// Config is the full Engine configuration. Zero values are filled from
// defaults by [New]; explicit configs pass through [Config.Validate] during
// Build and are treated as immutable afterwards.
type Config struct {
	Token    TokenConfig
	Password password.Config
	JWT      JWTConfig
	Session  SessionConfig
	Notify   NotifyConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls issuance and the validity windows of the two token
// purposes. A window is fixed at issuance; expiry is evaluated when the
// token is presented.
type TokenConfig struct {
	Format            TokenFormat
	EmailCheckTTL     time.Duration
	PasswordChangeTTL time.Duration
}

/*
====================================
SESSION / JWT CONFIG
====================================
*/

// JWTConfig configures the HS256 session access tokens returned by sign-up
// and log-in.
type JWTConfig struct {
	Secret    []byte
	AccessTTL time.Duration
	Issuer    string
}

// SessionConfig configures the Redis session store.
type SessionConfig struct {
	RedisPrefix string
	Lifetime    time.Duration
}

/*
====================================
NOTIFY / AUDIT / METRICS CONFIG
====================================
*/

// NotifyConfig controls the fire-and-forget notification dispatcher.
type NotifyConfig struct {
	BufferSize int
	DropIfFull bool
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			Format:            TokenOpaque,
			EmailCheckTTL:     24 * time.Hour,
			PasswordChangeTTL: 24 * time.Hour,
		},
		Password: password.Config{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		JWT: JWTConfig{
			AccessTTL: 15 * time.Minute,
			Issuer:    "authkit",
		},
		Session: SessionConfig{
			RedisPrefix: "ak",
			Lifetime:    7 * 24 * time.Hour,
		},
		Notify: NotifyConfig{
			BufferSize: 64,
			DropIfFull: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the Engine cannot operate under. It does
// not touch the password parameters; those are validated by
// [password.NewHasher] with its own minimums.
func (c Config) Validate() error {
	if c.Token.EmailCheckTTL <= 0 {
		return errors.New("token email check TTL must be positive")
	}
	if c.Token.PasswordChangeTTL <= 0 {
		return errors.New("token password change TTL must be positive")
	}
	if c.Token.Format != TokenOpaque && c.Token.Format != TokenUUID {
		return errors.New("unknown token format")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("jwt secret must be at least 32 bytes")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("jwt access TTL must be positive")
	}
	if c.Session.Lifetime <= 0 {
		return errors.New("session lifetime must be positive")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("session redis prefix must not be empty")
	}

	return nil
}
