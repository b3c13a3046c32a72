package session

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when no live session matches the ID.
var ErrSessionNotFound = errors.New("session not found")

// ErrRedisUnavailable wraps transport-level Redis failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const sessionRecordVersionV1 = 1

// Session is the server-side record backing one issued access token.
type Session struct {
	SessionID string
	UserID    string
	CreatedAt int64
	ExpiresAt int64
}

// Store reads and writes sessions in Redis.
type Store struct {
	redis  *redis.Client
	prefix string
}

// NewStore wraps client with the given key prefix.
func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + ":s:" + sessionID
}

func (s *Store) userKey(userID string) string {
	return s.prefix + ":u:" + userID
}

// Save persists sess and indexes it under its user for the given ttl.
func (s *Store) Save(ctx context.Context, sess *Session, ttl time.Duration) error {
	encoded, err := encodeSession(sess)
	if err != nil {
		return err
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, s.key(sess.SessionID), encoded, ttl)
	pipe.SAdd(ctx, s.userKey(sess.UserID), sess.SessionID)
	pipe.Expire(ctx, s.userKey(sess.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// Get returns the live session for sessionID. Sessions past their recorded
// expiry are treated as absent even if Redis has not evicted them yet.
func (s *Store) Get(ctx context.Context, sessionID string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	sess, err := decodeSession(data)
	if err != nil {
		return nil, err
	}
	if time.Now().Unix() > sess.ExpiresAt {
		return nil, ErrSessionNotFound
	}

	return sess, nil
}

// Delete removes one session and its index entry. Deleting an absent
// session is not an error.
func (s *Store) Delete(ctx context.Context, userID, sessionID string) error {
	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.SRem(ctx, s.userKey(userID), sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// DeleteAllForUser removes every live session of userID.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) error {
	ids, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	pipe := s.redis.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, s.key(id))
	}
	pipe.Del(ctx, s.userKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// ActiveSessionCount returns the number of indexed sessions for userID.
func (s *Store) ActiveSessionCount(ctx context.Context, userID string) (int, error) {
	n, err := s.redis.SCard(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(n), nil
}

func encodeSession(sess *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionRecordVersionV1)

	for _, field := range []string{sess.SessionID, sess.UserID} {
		if len(field) > 255 {
			return nil, errors.New("session field too long")
		}
		buf.WriteByte(byte(len(field)))
		buf.WriteString(field)
	}

	if err := binary.Write(&buf, binary.BigEndian, sess.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, sess.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeSession(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != sessionRecordVersionV1 {
		return nil, errors.New("invalid session record version")
	}

	sess := &Session{}
	for _, field := range []*string{&sess.SessionID, &sess.UserID} {
		length, err := reader.ReadByte()
		if err != nil {
			return nil, err
		}
		raw := make([]byte, length)
		if _, err := io.ReadFull(reader, raw); err != nil {
			return nil, err
		}
		*field = string(raw)
	}

	if err := binary.Read(reader, binary.BigEndian, &sess.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &sess.ExpiresAt); err != nil {
		return nil, err
	}

	return sess, nil
}
