package core

import "errors"

var (
	// ErrUnauthorized is the only authentication failure exposed to callers
	ErrUnauthorized = errors.New("unauthorized")

	ErrNotFound         = errors.New("not found")
	ErrNonceMismatch    = errors.New("nonce mismatch")
	ErrInvalidAddress   = errors.New("invalid wallet address")
	ErrTooManyAttempts  = errors.New("too many verification attempts")
	ErrInvalidSignature = errors.New("invalid signature")
)
