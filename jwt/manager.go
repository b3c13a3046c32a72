package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config configures a [Manager]. Secret is the HS256 signing key; short
// secrets are rejected because they make the session tokens offline
// brute-forceable.
type Config struct {
	Secret    []byte
	AccessTTL time.Duration
	Issuer    string
	Leeway    time.Duration
}

// Manager signs and parses access tokens. Instances are immutable after
// construction and safe for concurrent use.
type Manager struct {
	config Config
}

// AccessClaims are the claims carried by a session access token: the user
// identity and the server-side session it is bound to.
type AccessClaims struct {
	UID string `json:"uid"`
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// ErrTokenInvalid is returned by ParseAccess for any token that fails
// signature, structure, or time validation.
var ErrTokenInvalid = errors.New("invalid access token")

// NewManager validates cfg and returns a ready Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.New("hs256 secret must be at least 32 bytes")
	}
	if cfg.AccessTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{config: cfg}, nil
}

// CreateAccess signs an access token binding userID to sessionID.
func (m *Manager) CreateAccess(userID, sessionID string) (string, error) {
	now := time.Now()

	claims := AccessClaims{
		UID: userID,
		SID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// ParseAccess validates tokenStr and returns its claims. Tokens signed with
// any method other than HS256 are rejected before signature verification.
func (m *Manager) ParseAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}

	parsed, err := jwt.ParseWithClaims(
		tokenStr,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrTokenInvalid
			}
			return m.config.Secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithLeeway(m.config.Leeway),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.UID == "" || claims.SID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
