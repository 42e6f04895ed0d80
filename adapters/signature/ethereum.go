package signature

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/layer-3/walletauth/ports"
)

var _ ports.SignatureVerifier = (*EthereumVerifier)(nil)

// EthereumVerifier verifies EIP-191 personal_sign signatures.
// The public key is recovered from the signature and compared to the address.
type EthereumVerifier struct{}

// NewEthereumVerifier creates an Ethereum verifier
func NewEthereumVerifier() *EthereumVerifier {
	return &EthereumVerifier{}
}

// ValidAddress reports whether address is a 0x-prefixed 20-byte hex address
func (v *EthereumVerifier) ValidAddress(address string) bool {
	return strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}

// Normalize renders a valid address in its EIP-55 checksummed form
func (v *EthereumVerifier) Normalize(address string) string {
	if !v.ValidAddress(address) {
		return address
	}
	return common.HexToAddress(address).Hex()
}

// Verify checks a 65-byte R||S||V signature over the EIP-191 hash of message
func (v *EthereumVerifier) Verify(message, signatureHex, publicKey string) bool {
	if !v.ValidAddress(publicKey) {
		return false
	}

	if !strings.HasPrefix(signatureHex, "0x") {
		signatureHex = "0x" + signatureHex
	}
	sig, err := hexutil.Decode(signatureHex)
	if err != nil || len(sig) != crypto.SignatureLength {
		return false
	}

	// wallets emit V as 27/28
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return false
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return false
	}

	return crypto.PubkeyToAddress(*pub) == common.HexToAddress(publicKey)
}
