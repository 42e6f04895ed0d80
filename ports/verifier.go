package ports

// SignatureVerifier checks wallet signatures for one chain.
// Verify must fail closed: any decoding problem is reported as false.
type SignatureVerifier interface {
	ValidAddress(address string) bool

	// Normalize maps every accepted spelling of an address to one canonical
	// form. Invalid input is returned unchanged.
	Normalize(address string) string

	Verify(message, signatureHex, publicKey string) bool
}
