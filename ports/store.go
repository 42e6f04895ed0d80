package ports

import (
	"context"
	"time"

	"github.com/layer-3/walletauth/core"
)

// UserStore persists users and their pending challenge nonce
type UserStore interface {
	// UpsertNonce sets the pending nonce for the wallet, creating the user
	// with newID and createdAt when the address has not been seen before.
	UpsertNonce(ctx context.Context, address, nonce, newID string, createdAt time.Time) (*core.User, error)

	// GetByAddress returns core.ErrNotFound for unknown addresses
	GetByAddress(ctx context.Context, address string) (*core.User, error)

	// GetByID returns core.ErrNotFound for unknown users
	GetByID(ctx context.Context, id string) (*core.User, error)

	// ClearNonce clears the nonce only if it still equals expected,
	// otherwise it returns core.ErrNonceMismatch.
	ClearNonce(ctx context.Context, userID, expected string) error

	// Deactivate soft-deletes the user
	Deactivate(ctx context.Context, userID string) error
}

// TokenStore persists refresh token records keyed by token hash
type TokenStore interface {
	CreateRefreshToken(ctx context.Context, token *core.RefreshToken) error

	// ConsumeRefreshToken atomically flips an active token to inactive and
	// returns the record as it was. Unknown or already inactive tokens
	// yield core.ErrNotFound; exactly one concurrent caller can win.
	ConsumeRefreshToken(ctx context.Context, tokenHash string) (*core.RefreshToken, error)
}
