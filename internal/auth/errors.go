package auth

import "errors"

var (
	// ErrUsernameTaken is returned on register when the username exists.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned when login fails, for any reason the
	// caller is not told apart (unknown user, OAuth-only account, bad password).
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthorized is returned when an operation requires a session.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden is returned when the caller is known but not permitted.
	ErrForbidden = errors.New("access denied")
)
