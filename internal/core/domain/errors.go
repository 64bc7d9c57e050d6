package domain

import "errors"

var (
	// ErrUnauthenticated means no user identity is present.
	ErrUnauthenticated = errors.New("not signed in")
	// ErrUnauthorized means the identity is known but lacks the required role.
	ErrUnauthorized = errors.New("admin access required")
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks a precondition failure detected before any network call.
	ErrValidation = errors.New("validation failed")
	// ErrTransport covers an unreachable or failing backend.
	ErrTransport = errors.New("backend unavailable")
	// ErrMalformedResponse is returned when the backend answers without the
	// fields the caller depends on.
	ErrMalformedResponse = errors.New("malformed backend response")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrCartEmpty          = errors.New("cart is empty")
	ErrIdentityMismatch   = errors.New("cached identity belongs to another user")
)
