package walletauth

import (
	"context"
	"time"
)

// Client represents the public interface for interacting with the auth service
type Client interface {
	// Challenge returns the message the wallet must sign
	Challenge(ctx context.Context, walletAddress string) (*Challenge, error)

	// Verify exchanges a signed challenge for a token pair
	Verify(ctx context.Context, walletAddress, signature, publicKey string) (*Tokens, error)

	// Refresh rotates the refresh token and returns new tokens
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)

	// Logout invalidates the refresh token
	Logout(ctx context.Context, accessToken, refreshToken string) error

	// Me returns the user behind the access token
	Me(ctx context.Context, accessToken string) (*User, error)
}

// Challenge is a nonce and the message to sign
type Challenge struct {
	Nonce   string `json:"nonce"`
	Message string `json:"message"`
}

// Tokens is an access and refresh token pair
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// User is the authenticated wallet owner
type User struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	IsActive      bool      `json:"isActive"`
	CreatedAt     time.Time `json:"createdAt"`
}
