package signature

import (
	"fmt"

	"github.com/layer-3/walletauth/ports"
)

const (
	ChainStellar  = "stellar"
	ChainEthereum = "ethereum"
)

// New returns the verifier for the named chain
func New(chain string) (ports.SignatureVerifier, error) {
	switch chain {
	case ChainStellar:
		return NewStellarVerifier(), nil
	case ChainEthereum:
		return NewEthereumVerifier(), nil
	default:
		return nil, fmt.Errorf("unsupported chain: %q", chain)
	}
}
