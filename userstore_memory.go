package authkit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-process UserStore. It honors the full store contract,
// including the optimistic version check on Update, and is the store of
// choice for tests and single-process embedding. Construct isolated
// instances per test instead of sharing fixtures.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]User
	byEmail map[string]string
	nextID  int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]User),
		byEmail: make(map[string]string),
	}
}

// FindByEmail implements [UserStore].
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return User{}, ErrUserNotFound
	}

	return cloneUser(s.byID[id]), nil
}

// FindByID implements [UserStore].
func (s *MemoryStore) FindByID(ctx context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}

	return cloneUser(user), nil
}

// Create implements [UserStore]. It assigns the ID, stamps CreatedAt, and
// starts the record at Version 1.
func (s *MemoryStore) Create(ctx context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := NormalizeEmail(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return User{}, ErrDuplicateEmail
	}

	s.nextID++
	user.ID = fmt.Sprintf("u%d", s.nextID)
	user.Email = email
	user.Version = 1
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	s.byID[user.ID] = cloneUser(user)
	s.byEmail[email] = user.ID

	return user, nil
}

// Update implements [UserStore]. The write is rejected with
// [ErrVersionConflict] unless user.Version matches the stored version; on
// success the stored record advances to Version+1.
func (s *MemoryStore) Update(ctx context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[user.ID]
	if !ok {
		return User{}, ErrUserNotFound
	}
	if current.Version != user.Version {
		return User{}, ErrVersionConflict
	}

	user.Email = current.Email
	user.CreatedAt = current.CreatedAt
	user.Version = current.Version + 1

	s.byID[user.ID] = cloneUser(user)

	return user, nil
}

// cloneUser deep-copies the token sub-records so callers never alias stored
// state.
func cloneUser(user User) User {
	if user.EmailCheck != nil {
		record := *user.EmailCheck
		user.EmailCheck = &record
	}
	if user.PasswordChange != nil {
		record := *user.PasswordChange
		user.PasswordChange = &record
	}
	return user
}
