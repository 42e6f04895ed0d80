package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims combines standard claims with access-specific ones
type AccessClaims struct {
	jwt.RegisteredClaims
	WalletAddress string `json:"wallet_address"`
	Type          string `json:"type"` // token type discriminator, "access" for access tokens
}
