package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

const refreshTokenBytes = 32

// TokenIssuer mints access tokens and opaque refresh tokens
type TokenIssuer struct {
	tokenizer ports.Tokenizer
	tokens    ports.TokenStore

	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenIssuer creates a token issuer
func NewTokenIssuer(tokenizer ports.Tokenizer, tokens ports.TokenStore, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		tokenizer:  tokenizer,
		tokens:     tokens,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// HashToken returns the storage key for a raw refresh token
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// IssueAccessToken signs a short-lived access token
func (i *TokenIssuer) IssueAccessToken(userID, walletAddress string) (string, error) {
	now := i.now()
	token, err := i.tokenizer.IdentityToAccessToken(
		core.Identity{UserID: userID, WalletAddress: walletAddress},
		now,
		now.Add(i.accessTTL),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create access token: %w", err)
	}
	return token, nil
}

// IssueRefreshToken persists and returns a new active refresh token
func (i *TokenIssuer) IssueRefreshToken(ctx context.Context, userID string) (string, error) {
	buf := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	raw := hex.EncodeToString(buf)

	now := i.now().UTC()
	err := i.tokens.CreateRefreshToken(ctx, &core.RefreshToken{
		TokenHash: HashToken(raw),
		UserID:    userID,
		ExpiresAt: now.Add(i.refreshTTL),
		IsActive:  true,
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create refresh token: %w", err)
	}
	return raw, nil
}

// IssuePair issues an access token and a refresh token
func (i *TokenIssuer) IssuePair(ctx context.Context, userID, walletAddress string) (*core.TokenPair, error) {
	access, err := i.IssueAccessToken(userID, walletAddress)
	if err != nil {
		return nil, err
	}

	refresh, err := i.IssueRefreshToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &core.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateAccessToken returns the identity in token or core.ErrUnauthorized
func (i *TokenIssuer) ValidateAccessToken(token string) (*core.Identity, error) {
	identity, err := i.tokenizer.AccessTokenToIdentity(token, i.now())
	if err != nil {
		return nil, core.ErrUnauthorized
	}
	return identity, nil
}

// Consume invalidates a raw refresh token, returning its record as it was
func (i *TokenIssuer) Consume(ctx context.Context, raw string) (*core.RefreshToken, error) {
	return i.tokens.ConsumeRefreshToken(ctx, HashToken(raw))
}
