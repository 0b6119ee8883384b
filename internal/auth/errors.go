package auth

import "errors"

var (
	ErrNotConfigured = errors.New("auth token is not configured")
	ErrInvalidToken  = errors.New("incorrect authorization token")
)
