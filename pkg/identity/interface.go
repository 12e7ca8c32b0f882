package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredential covers a missing, malformed, expired or
	// unverifiable credential.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrUnavailable means the credential could not be checked at all.
	ErrUnavailable = errors.New("identity provider unavailable")
)

// Claims is what a verified credential asserts about its subject. Role may
// be empty when the provider does not carry it.
type Claims struct {
	UserID string
	Role   string
}

type Verifier interface {
	Verify(ctx context.Context, credential string) (*Claims, error)
}
