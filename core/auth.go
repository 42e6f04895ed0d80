package core

import "time"

// TokenTypeAccess is the type claim carried by every access token
const TokenTypeAccess = "access"

// User represents a wallet owner known to the service
type User struct {
	ID            string    // Opaque unique identifier
	WalletAddress string    // Chain address, unique per user
	Nonce         *string   // Pending challenge nonce, nil when no challenge is outstanding
	IsActive      bool      // Soft-deactivation flag
	CreatedAt     time.Time // When the user was first seen
}

// HasPendingNonce reports whether a challenge is outstanding for the user
func (u *User) HasPendingNonce() bool {
	return u.Nonce != nil && *u.Nonce != ""
}

// RefreshToken is the server-side record of an opaque refresh token.
// The raw token value is never stored, only its SHA-256 digest.
type RefreshToken struct {
	TokenHash string    // Hex SHA-256 of the token value handed to the client
	UserID    string    // Owner of the token
	ExpiresAt time.Time // When the token stops being redeemable
	IsActive  bool      // False once used for refresh or logged out
	CreatedAt time.Time // When the token was issued
}

// Expired reports whether the token expiry is at or before now
func (t *RefreshToken) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

// Challenge is the nonce and human-readable message a wallet must sign
type Challenge struct {
	Nonce   string
	Message string
}

// Identity is the authenticated principal extracted from an access token
type Identity struct {
	UserID        string
	WalletAddress string
}

// TokenPair is returned by a successful verification or refresh
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
