package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/crypto/bcrypt"
)

// Authorizer decides whether a bearer token may upload and delete files.
type Authorizer interface {
	Authorize(ctx context.Context, token string) error
}

// New returns the Authorizer for mode. An empty secret is not an error here,
// the returned Authorizer reports ErrNotConfigured on every call instead.
func New(mode, secret string) (Authorizer, error) {
	switch mode {
	case "", "token":
		return NewTokenAuthorizer(secret), nil
	case "bcrypt":
		return NewBcryptAuthorizer(secret), nil
	case "jwt":
		return NewJWTAuthorizer(secret), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", mode)
	}
}

// TokenAuthorizer compares the bearer token with a single shared secret.
type TokenAuthorizer struct {
	secret []byte
}

func NewTokenAuthorizer(secret string) *TokenAuthorizer {
	return &TokenAuthorizer{secret: []byte(secret)}
}

func (a *TokenAuthorizer) Authorize(_ context.Context, token string) error {
	if len(a.secret) == 0 {
		return ErrNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(token), a.secret) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// BcryptAuthorizer checks the bearer token against a bcrypt hash of the
// shared secret, so the plain secret never has to be stored on the server.
type BcryptAuthorizer struct {
	hash []byte
}

func NewBcryptAuthorizer(hash string) *BcryptAuthorizer {
	return &BcryptAuthorizer{hash: []byte(hash)}
}

func (a *BcryptAuthorizer) Authorize(_ context.Context, token string) error {
	if len(a.hash) == 0 {
		return ErrNotConfigured
	}
	err := bcrypt.CompareHashAndPassword(a.hash, []byte(token))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrInvalidToken
	default:
		// malformed hash in the configuration
		return fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}
}

// JWTAuthorizer accepts HS256 tokens signed with the shared secret.
type JWTAuthorizer struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTAuthorizer(secret string) *JWTAuthorizer {
	if secret == "" {
		return &JWTAuthorizer{}
	}
	return &JWTAuthorizer{tokenAuth: jwtauth.New("HS256", []byte(secret), nil)}
}

// GetAuth returns the JWTAuth instance, e.g. for issuing tokens.
func (a *JWTAuthorizer) GetAuth() *jwtauth.JWTAuth {
	return a.tokenAuth
}

func (a *JWTAuthorizer) Authorize(_ context.Context, token string) error {
	if a.tokenAuth == nil {
		return ErrNotConfigured
	}
	if token == "" {
		return ErrInvalidToken
	}
	if _, err := jwtauth.VerifyToken(a.tokenAuth, token); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return nil
}
