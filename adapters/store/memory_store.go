package store

import (
	"context"
	"sync"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

var (
	_ ports.UserStore  = (*MemoryStore)(nil)
	_ ports.TokenStore = (*MemoryStore)(nil)
)

// MemoryStore is an in-memory implementation of the user and token stores
type MemoryStore struct {
	users     map[string]*core.User // by ID
	addresses map[string]string     // address -> user ID
	tokens    map[string]*core.RefreshToken
	mu        sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]*core.User),
		addresses: make(map[string]string),
		tokens:    make(map[string]*core.RefreshToken),
	}
}

// UpsertNonce sets the pending nonce, creating the user if needed
func (s *MemoryStore) UpsertNonce(ctx context.Context, address, nonce, newID string, createdAt time.Time) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, exists := s.addresses[address]
	if !exists {
		id = newID
		s.addresses[address] = id
		s.users[id] = &core.User{
			ID:            id,
			WalletAddress: address,
			IsActive:      true,
			CreatedAt:     createdAt,
		}
	}

	user := s.users[id]
	n := nonce
	user.Nonce = &n

	return copyUser(user), nil
}

// GetByAddress looks a user up by wallet address
func (s *MemoryStore) GetByAddress(ctx context.Context, address string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.addresses[address]
	if !ok {
		return nil, core.ErrNotFound
	}
	return copyUser(s.users[id]), nil
}

// GetByID looks a user up by ID
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return copyUser(user), nil
}

// ClearNonce clears the nonce if it still matches expected
func (s *MemoryStore) ClearNonce(ctx context.Context, userID, expected string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	if user.Nonce == nil || *user.Nonce != expected {
		return core.ErrNonceMismatch
	}

	user.Nonce = nil
	return nil
}

// Deactivate marks the user inactive
func (s *MemoryStore) Deactivate(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	user.IsActive = false
	return nil
}

// CreateRefreshToken stores a new refresh token record
func (s *MemoryStore) CreateRefreshToken(ctx context.Context, token *core.RefreshToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := *token
	s.tokens[token.TokenHash] = &t
	return nil
}

// ConsumeRefreshToken flips an active token to inactive under the write lock
func (s *MemoryStore) ConsumeRefreshToken(ctx context.Context, tokenHash string) (*core.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[tokenHash]
	if !ok || !token.IsActive {
		return nil, core.ErrNotFound
	}

	consumed := *token
	token.IsActive = false
	return &consumed, nil
}

func copyUser(u *core.User) *core.User {
	c := *u
	if u.Nonce != nil {
		n := *u.Nonce
		c.Nonce = &n
	}
	return &c
}
