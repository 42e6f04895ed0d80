package walletauth

import (
	"errors"
)

var (
	// ErrUnauthorized is returned for any rejected credential
	ErrUnauthorized = errors.New("unauthorized")

	// ErrBadRequest is returned when the server rejects the request shape
	ErrBadRequest = errors.New("bad request")

	// ErrUnexpectedStatus is returned for any other non-2xx response
	ErrUnexpectedStatus = errors.New("unexpected status")
)
