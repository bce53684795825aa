package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid confirmation token")
	ErrPersistence        = errors.New("persistence failure")
	ErrNotification       = errors.New("notification failure")

	// ErrConflict is returned by stores when a conditional write loses a race.
	ErrConflict   = errors.New("conflict")
	ErrBadRequest = errors.New("bad request")
)
