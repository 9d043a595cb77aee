package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")

	// ErrMissingRefreshToken and ErrMissingUsername are caller input
	// validation failures, not authentication attempts.
	ErrMissingRefreshToken = errors.New("refresh token not provided")
	ErrMissingUsername     = errors.New("username not provided")

	// ErrInvalidRefreshToken covers any verification failure of the
	// presented refresh token itself.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrRefreshTokenNotFound means the token verified structurally but no
	// matching live record exists; the token is rejected fail-closed.
	ErrRefreshTokenNotFound = errors.New("refresh token not found")

	// ErrUnknownSubject means rotation state was written for a username with
	// no identity record. Internal consistency error, never a client fault.
	ErrUnknownSubject = errors.New("unknown subject")
)
