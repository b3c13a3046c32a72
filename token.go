package authkit

import (
	"time"

	"github.com/google/uuid"
	"github.com/rvillert/authkit/internal"
)

// TokenFormat selects how issued token values are encoded.
type TokenFormat int

const (
	// TokenOpaque issues 32 CSPRNG bytes encoded base64url. Default.
	TokenOpaque TokenFormat = iota
	// TokenUUID issues a random UUIDv4 string, for deployments whose link
	// plumbing expects UUID-shaped values.
	TokenUUID
)

// issueToken mints a fresh token for purpose and overwrites the user's
// sub-record with an unused TokenRecord stamped now. The previous token for
// the purpose, used or not, stops being presentable the moment the caller
// commits the updated record. Nothing is persisted here.
func (e *Engine) issueToken(user *User, purpose Purpose, now time.Time) (Token, error) {
	var value string

	switch e.config.Token.Format {
	case TokenUUID:
		value = uuid.NewString()
	default:
		v, err := internal.NewTokenValue()
		if err != nil {
			return "", err
		}
		value = v
	}

	token := Token(value)
	user.setTokenRecord(purpose, &TokenRecord{
		Token:     token,
		CreatedAt: now,
		Used:      false,
	})

	return token, nil
}

func (e *Engine) tokenTTL(purpose Purpose) time.Duration {
	switch purpose {
	case PurposePasswordChange:
		return e.config.Token.PasswordChangeTTL
	default:
		return e.config.Token.EmailCheckTTL
	}
}
