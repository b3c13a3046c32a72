package authkit

import (
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rvillert/authkit/jwt"
	"github.com/rvillert/authkit/password"
	"github.com/rvillert/authkit/session"
)

// Builder assembles an [Engine]. Collaborators default to safe no-ops where
// one exists; the Redis client and the user store have no default and must
// be supplied.
type Builder struct {
	config    Config
	redis     *redis.Client
	userStore UserStore
	notifier  Notifier
	auditSink AuditSink
	built     bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config:    defaultConfig(),
		notifier:  NoOpNotifier{},
		auditSink: NoOpSink{},
	}
}

// WithConfig replaces the whole configuration. It is validated in Build.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithJWTSecret sets the HS256 signing key without replacing the rest of
// the configuration.
func (b *Builder) WithJWTSecret(secret []byte) *Builder {
	b.config.JWT.Secret = secret
	return b
}

// WithRedis sets the client backing the session store.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the account persistence backend.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.userStore = store
	return b
}

// WithNotifier sets the delivery backend for verification and reset
// notifications. Defaults to a no-op.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithAuditSink enables auditing into sink.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	b.config.Audit.Enabled = true
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the collaborators, and returns a
// ready Engine. A Builder builds once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.userStore == nil {
		return nil, errors.New("user store is required")
	}

	hasher, err := password.NewHasher(b.config.Password)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	jwtManager, err := jwt.NewManager(jwt.Config{
		Secret:    b.config.JWT.Secret,
		AccessTTL: b.config.JWT.AccessTTL,
		Issuer:    b.config.JWT.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("jwt manager: %w", err)
	}

	// Derived once so unknown-email logins can verify against something
	// with the exact configured cost.
	dummyHash, err := hasher.Hash("authkit-dummy-credential")
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	engine := &Engine{
		config:       b.config,
		userStore:    b.userStore,
		sessionStore: session.NewStore(b.redis, b.config.Session.RedisPrefix),
		jwtManager:   jwtManager,
		hasher:       hasher,
		notify:       newNotifyDispatcher(b.config.Notify, b.notifier),
		metrics:      NewMetrics(b.config.Metrics),
		dummyHash:    dummyHash,
	}
	if b.config.Audit.Enabled {
		engine.audit = newAuditDispatcher(b.config.Audit, b.auditSink)
	}

	b.built = true
	return engine, nil
}
