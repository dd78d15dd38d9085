// Package auth provides the credential gate for querygate.
// A single static API key, configured at startup, guards every protected endpoint.
package auth

import (
	"context"
	"crypto/subtle"

	"github.com/canonica-labs/querygate/internal/errors"
)

// DefaultHeader is the request header carrying the API key unless configured otherwise.
const DefaultHeader = "X-API-Key"

// Authenticator validates the credential presented with a request.
type Authenticator interface {
	// Authenticate returns nil when the presented value is accepted.
	// An empty presented value means the header was absent.
	Authenticate(ctx context.Context, presented string) error
}

// StaticKeyAuthenticator implements Authenticator against one configured key.
// It holds no mutable state and is safe for concurrent use.
type StaticKeyAuthenticator struct {
	key []byte
}

// NewStaticKeyAuthenticator creates an authenticator for key.
// An empty key is allowed and rejects every request.
func NewStaticKeyAuthenticator(key string) *StaticKeyAuthenticator {
	return &StaticKeyAuthenticator{key: []byte(key)}
}

// Configured reports whether a non-empty key was supplied.
func (a *StaticKeyAuthenticator) Configured() bool {
	return len(a.key) > 0
}

// Authenticate checks presented against the configured key with exact-match semantics.
func (a *StaticKeyAuthenticator) Authenticate(ctx context.Context, presented string) error {
	if len(a.key) == 0 {
		return errors.NewUnauthorized("no api key configured")
	}
	if presented == "" {
		return errors.NewUnauthorized("api key required")
	}
	if subtle.ConstantTimeCompare([]byte(presented), a.key) != 1 {
		return errors.NewUnauthorized("invalid api key")
	}
	return nil
}
