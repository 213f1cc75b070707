package auth

import (
	"context"
	"strings"
	"sync"
)

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// InMemoryUserStore keeps accounts in a map; used in tests and when no database is configured.
type InMemoryUserStore struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func (s *InMemoryUserStore) Create(ctx context.Context, user *User) error {
	email := strings.ToLower(user.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[email]; exists {
		return ErrEmailTaken
	}
	copied := *user
	s.byID[user.ID] = &copied
	s.byEmail[email] = user.ID
	return nil
}

func (s *InMemoryUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *s.byID[id]
	return &copied, nil
}

func (s *InMemoryUserStore) GetByID(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}
