package authkit

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const userRecordVersionV1 = 1

// RedisUserStore is a Redis-backed UserStore.
//
// Key layout:
//
//	<prefix>:ue:<email>  — userID owning the email (uniqueness guard)
//	<prefix>:ur:<userID> — encoded user record
//
// Update runs as a WATCH/MULTI optimistic transaction on the record key, so
// the version check and the write commit atomically; a concurrent writer
// forces a retry at the Redis level and a version mismatch surfaces as
// [ErrVersionConflict].
type RedisUserStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisUserStore wraps client with the given key prefix.
func NewRedisUserStore(client *redis.Client, prefix string) *RedisUserStore {
	return &RedisUserStore{
		redis:  client,
		prefix: prefix,
	}
}

func (s *RedisUserStore) emailKey(email string) string {
	return s.prefix + ":ue:" + NormalizeEmail(email)
}

func (s *RedisUserStore) recordKey(userID string) string {
	return s.prefix + ":ur:" + userID
}

// FindByEmail implements [UserStore].
func (s *RedisUserStore) FindByEmail(ctx context.Context, email string) (User, error) {
	id, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return s.FindByID(ctx, id)
}

// FindByID implements [UserStore].
func (s *RedisUserStore) FindByID(ctx context.Context, id string) (User, error) {
	data, err := s.redis.Get(ctx, s.recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return decodeUserRecord(data)
}

// Create implements [UserStore]. The email claim is a SETNX, so two
// concurrent sign-ups for the same address resolve to one winner.
func (s *RedisUserStore) Create(ctx context.Context, user User) (User, error) {
	user.ID = uuid.NewString()
	user.Email = NormalizeEmail(user.Email)
	user.Version = 1
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	claimed, err := s.redis.SetNX(ctx, s.emailKey(user.Email), user.ID, 0).Result()
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !claimed {
		return User{}, ErrDuplicateEmail
	}

	encoded, err := encodeUserRecord(&user)
	if err != nil {
		return User{}, err
	}
	if err := s.redis.Set(ctx, s.recordKey(user.ID), encoded, 0).Err(); err != nil {
		// Roll the email claim back so the address is not wedged.
		_ = s.redis.Del(ctx, s.emailKey(user.Email)).Err()
		return User{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return user, nil
}

// Update implements [UserStore].
func (s *RedisUserStore) Update(ctx context.Context, user User) (User, error) {
	const maxRetries = 4
	key := s.recordKey(user.ID)

	for i := 0; i < maxRetries; i++ {
		var updated User

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}

			current, err := decodeUserRecord(data)
			if err != nil {
				return err
			}
			if current.Version != user.Version {
				return ErrVersionConflict
			}

			updated = user
			updated.Email = current.Email
			updated.CreatedAt = current.CreatedAt
			updated.Version = current.Version + 1

			encoded, err := encodeUserRecord(&updated)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			// Another writer committed between WATCH and EXEC. A retry
			// re-reads the record, so the version check stays authoritative.
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, redis.Nil):
				return User{}, ErrUserNotFound
			case errors.Is(err, ErrVersionConflict):
				return User{}, ErrVersionConflict
			default:
				return User{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		}

		return updated, nil
	}

	return User{}, ErrVersionConflict
}

func encodeUserRecord(user *User) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(userRecordVersionV1)

	for _, field := range []string{user.ID, user.Email, user.FirstName, user.CredentialHash} {
		if len(field) > 65535 {
			return nil, errors.New("user record field too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(field))); err != nil {
			return nil, err
		}
		buf.WriteString(field)
	}

	buf.WriteByte(encodeBool(user.EmailVerified))

	if err := binary.Write(&buf, binary.BigEndian, user.Version); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, user.CreatedAt.Unix()); err != nil {
		return nil, err
	}

	for _, record := range []*TokenRecord{user.EmailCheck, user.PasswordChange} {
		if record == nil {
			buf.WriteByte(0)
			continue
		}
		buf.WriteByte(1)
		if len(record.Token) > 65535 {
			return nil, errors.New("token value too long")
		}
		if err := binary.Write(&buf, binary.BigEndian, uint16(len(record.Token))); err != nil {
			return nil, err
		}
		buf.WriteString(string(record.Token))
		if err := binary.Write(&buf, binary.BigEndian, record.CreatedAt.UnixNano()); err != nil {
			return nil, err
		}
		buf.WriteByte(encodeBool(record.Used))
	}

	return buf.Bytes(), nil
}

func decodeUserRecord(data []byte) (User, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return User{}, err
	}
	if version != userRecordVersionV1 {
		return User{}, errors.New("invalid user record version")
	}

	var user User
	for _, field := range []*string{&user.ID, &user.Email, &user.FirstName, &user.CredentialHash} {
		value, err := readLenString(reader)
		if err != nil {
			return User{}, err
		}
		*field = value
	}

	verified, err := reader.ReadByte()
	if err != nil {
		return User{}, err
	}
	user.EmailVerified = verified == 1

	if err := binary.Read(reader, binary.BigEndian, &user.Version); err != nil {
		return User{}, err
	}
	var createdAt int64
	if err := binary.Read(reader, binary.BigEndian, &createdAt); err != nil {
		return User{}, err
	}
	user.CreatedAt = time.Unix(createdAt, 0)

	for _, target := range []**TokenRecord{&user.EmailCheck, &user.PasswordChange} {
		present, err := reader.ReadByte()
		if err != nil {
			return User{}, err
		}
		if present == 0 {
			continue
		}

		value, err := readLenString(reader)
		if err != nil {
			return User{}, err
		}
		var issuedAt int64
		if err := binary.Read(reader, binary.BigEndian, &issuedAt); err != nil {
			return User{}, err
		}
		used, err := reader.ReadByte()
		if err != nil {
			return User{}, err
		}

		*target = &TokenRecord{
			Token:     Token(value),
			CreatedAt: time.Unix(0, issuedAt),
			Used:      used == 1,
		}
	}

	return user, nil
}

func readLenString(reader *bytes.Reader) (string, error) {
	var length uint16
	if err := binary.Read(reader, binary.BigEndian, &length); err != nil {
		return "", err
	}

	raw := make([]byte, length)
	if _, err := io.ReadFull(reader, raw); err != nil {
		return "", err
	}

	return string(raw), nil
}

func encodeBool(b bool) byte {
	if b {
		return 1
	}
	return 0
}
