package signature

import (
	"encoding/hex"

	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/strkey"

	"github.com/layer-3/walletauth/ports"
)

var _ ports.SignatureVerifier = (*StellarVerifier)(nil)

// StellarVerifier verifies Ed25519 signatures from Stellar accounts.
// The account ID is the public key, so no key recovery is involved.
type StellarVerifier struct{}

// NewStellarVerifier creates a Stellar verifier
func NewStellarVerifier() *StellarVerifier {
	return &StellarVerifier{}
}

// ValidAddress reports whether address is a well-formed G... account ID
func (v *StellarVerifier) ValidAddress(address string) bool {
	_, err := strkey.Decode(strkey.VersionByteAccountID, address)
	return err == nil
}

// Normalize returns address unchanged; account IDs have a single encoding
func (v *StellarVerifier) Normalize(address string) string {
	return address
}

// Verify checks a hex-encoded Ed25519 signature over the raw message bytes
func (v *StellarVerifier) Verify(message, signatureHex, publicKey string) bool {
	kp, err := keypair.ParseAddress(publicKey)
	if err != nil {
		return false
	}

	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}

	return kp.Verify([]byte(message), sig) == nil
}
