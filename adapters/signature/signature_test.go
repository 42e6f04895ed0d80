package signature

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stellar/go-stellar-sdk/keypair"
	"github.com/stellar/go-stellar-sdk/strkey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const message = "Sign this message to authenticate with your wallet.\n\nNonce: abc"

func signStellar(t *testing.T, kp *keypair.Full, msg string) string {
	t.Helper()
	sig, err := kp.Sign([]byte(msg))
	require.NoError(t, err)
	return hex.EncodeToString(sig)
}

func TestStellarValidAddress(t *testing.T) {
	v := NewStellarVerifier()
	kp := keypair.MustRandom()
	address := kp.Address()

	raw, err := strkey.Decode(strkey.VersionByteAccountID, address)
	require.NoError(t, err)
	encoded, err := strkey.Encode(strkey.VersionByteAccountID, raw)
	require.NoError(t, err)
	assert.True(t, v.ValidAddress(encoded))

	last := "A"
	if strings.HasSuffix(address, "A") {
		last = "B"
	}

	tests := []struct {
		name    string
		address string
	}{
		{"bad checksum", address[:55] + last},
		{"too short", address[:55]},
		{"secret seed", kp.Seed()},
		{"non base32", address[:10] + "1" + address[11:]},
		{"ethereum", "0x52908400098527886E0F7030069857D2E4169EE7"},
		{"empty", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, v.ValidAddress(tc.address))
		})
	}
}

func TestStellarVerify(t *testing.T) {
	v := NewStellarVerifier()
	kp := keypair.MustRandom()
	address := kp.Address()
	sig := signStellar(t, kp, message)

	assert.True(t, v.Verify(message, sig, address))

	other := keypair.MustRandom()
	assert.False(t, v.Verify(message, sig, other.Address()), "signature from another key")
	assert.False(t, v.Verify(message+"x", sig, address), "tampered message")
	assert.False(t, v.Verify(message, "zz"+sig[2:], address), "non hex signature")
	assert.False(t, v.Verify(message, sig[:126], address), "short signature")
	assert.False(t, v.Verify(message, sig, "not-an-address"))
	assert.False(t, v.Verify(message, sig, kp.Seed()), "seed is not an account")
}

func TestStellarNormalize(t *testing.T) {
	v := NewStellarVerifier()
	address := keypair.MustRandom().Address()
	assert.Equal(t, address, v.Normalize(address))
}

func TestEthereumVerify(t *testing.T) {
	v := NewEthereumVerifier()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	require.NoError(t, err)

	assert.True(t, v.ValidAddress(address))
	assert.True(t, v.Verify(message, hexutil.Encode(sig), address))
	assert.True(t, v.Verify(message, hex.EncodeToString(sig), address), "without 0x prefix")
	assert.True(t, v.Verify(message, hexutil.Encode(sig), strings.ToLower(address)), "lowercase address")

	// wallet-style V
	walletSig := append([]byte(nil), sig...)
	walletSig[crypto.RecoveryIDOffset] += 27
	assert.True(t, v.Verify(message, hexutil.Encode(walletSig), address))

	other, err := crypto.GenerateKey()
	require.NoError(t, err)
	otherAddress := crypto.PubkeyToAddress(other.PublicKey).Hex()
	assert.False(t, v.Verify(message, hexutil.Encode(sig), otherAddress))
	assert.False(t, v.Verify(message+"x", hexutil.Encode(sig), address))
	assert.False(t, v.Verify(message, hexutil.Encode(sig[:64]), address))
	assert.False(t, v.ValidAddress(keypair.MustRandom().Address()))
}

func TestEthereumNormalize(t *testing.T) {
	v := NewEthereumVerifier()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	checksummed := crypto.PubkeyToAddress(key.PublicKey).Hex()

	assert.Equal(t, checksummed, v.Normalize(checksummed))
	assert.Equal(t, checksummed, v.Normalize(strings.ToLower(checksummed)))
	assert.Equal(t, checksummed, v.Normalize("0x"+strings.ToUpper(checksummed[2:])))
	assert.Equal(t, "not-an-address", v.Normalize("not-an-address"))
}

func TestNew(t *testing.T) {
	v, err := New(ChainStellar)
	require.NoError(t, err)
	assert.IsType(t, &StellarVerifier{}, v)

	v, err = New(ChainEthereum)
	require.NoError(t, err)
	assert.IsType(t, &EthereumVerifier{}, v)

	_, err = New("solana")
	assert.Error(t, err)
}
