package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

const (
	nonceBytes = 32

	challengePrefix = "Sign this message to authenticate with your wallet.\n\nNonce: "
)

// ChallengeManager issues single-use nonces per wallet
type ChallengeManager struct {
	users ports.UserStore
	now   func() time.Time
}

// NewChallengeManager creates a challenge manager
func NewChallengeManager(users ports.UserStore) *ChallengeManager {
	return &ChallengeManager{
		users: users,
		now:   time.Now,
	}
}

// Issue stores a fresh nonce for the wallet, replacing any outstanding one.
// Unseen wallets get a new user record.
func (m *ChallengeManager) Issue(ctx context.Context, walletAddress string) (*core.Challenge, error) {
	buf := make([]byte, nonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	nonce := hex.EncodeToString(buf)

	if _, err := m.users.UpsertNonce(ctx, walletAddress, nonce, uuid.New().String(), m.now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to store nonce: %w", err)
	}

	return &core.Challenge{
		Nonce:   nonce,
		Message: m.Message(nonce),
	}, nil
}

// Message renders the exact text the wallet signs for nonce
func (m *ChallengeManager) Message(nonce string) string {
	return challengePrefix + nonce
}
