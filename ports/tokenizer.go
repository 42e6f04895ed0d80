package ports

import (
	"time"

	"github.com/layer-3/walletauth/core"
)

// Tokenizer converts between identities and signed access tokens
type Tokenizer interface {
	IdentityToAccessToken(identity core.Identity, issuedAt, expiresAt time.Time) (string, error)

	// AccessTokenToIdentity validates signature, expiry and type claim at now
	AccessTokenToIdentity(token string, now time.Time) (*core.Identity, error)
}
