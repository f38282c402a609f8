package model

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidState  = errors.New("oauth state mismatch")
	ErrNoFlow        = errors.New("no sign-in flow in progress")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrTokenRevoked  = errors.New("refresh token revoked")
	ErrTokenExpired  = errors.New("refresh token expired")
	ErrTokenMismatch = errors.New("refresh token mismatch")
)

// ExchangeError is returned when an authorization code cannot be exchanged
// for a session. Reason is safe to show to the user.
type ExchangeError struct {
	Reason string
	Err    error
}

func (e *ExchangeError) Error() string {
	return e.Reason
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}
