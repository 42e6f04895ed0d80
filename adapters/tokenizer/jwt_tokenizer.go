package tokenizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
)

// ErrSecretTooShort is returned for HMAC secrets under 32 bytes
var ErrSecretTooShort = errors.New("jwt secret must be at least 32 bytes")

const minSecretLength = 32

var _ ports.Tokenizer = (*JWTTokenizer)(nil)

// JWTTokenizer implements the Tokenizer interface using HS256 JWTs
type JWTTokenizer struct {
	secret []byte
	issuer string
}

// NewJWTTokenizer creates a new JWT tokenizer. The secret is copied and
// never mutated afterwards.
func NewJWTTokenizer(secret []byte, issuer string) (*JWTTokenizer, error) {
	if len(secret) < minSecretLength {
		return nil, ErrSecretTooShort
	}
	s := make([]byte, len(secret))
	copy(s, secret)
	return &JWTTokenizer{secret: s, issuer: issuer}, nil
}

// IdentityToAccessToken signs an access token for the identity
func (j *JWTTokenizer) IdentityToAccessToken(identity core.Identity, issuedAt, expiresAt time.Time) (string, error) {
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    j.issuer,
			Subject:   identity.UserID,
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
		WalletAddress: identity.WalletAddress,
		Type:          core.TokenTypeAccess,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signedToken, nil
}

// AccessTokenToIdentity parses an access token and returns its identity.
// Every failure is reported as core.ErrUnauthorized.
func (j *JWTTokenizer) AccessTokenToIdentity(tokenStr string, now time.Time) (*core.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !token.Valid {
		return nil, core.ErrUnauthorized
	}

	claims, ok := token.Claims.(*AccessClaims)
	if !ok {
		return nil, core.ErrUnauthorized
	}

	if claims.Type != core.TokenTypeAccess || claims.Subject == "" || claims.WalletAddress == "" {
		return nil, core.ErrUnauthorized
	}
	if j.issuer != "" && claims.Issuer != j.issuer {
		return nil, core.ErrUnauthorized
	}

	return &core.Identity{
		UserID:        claims.Subject,
		WalletAddress: claims.WalletAddress,
	}, nil
}
