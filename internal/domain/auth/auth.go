// Package auth defines the identity capability consumed by checkout.
// The production marketplace delegates to an account service; this
// module ships a static token provider for development and tests.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrUnauthenticated is returned when a session token resolves to no user.
var ErrUnauthenticated = errors.New("unauthenticated")

// User is the authenticated customer identity.
type User struct {
	ID    string
	Name  string
	Email string
}

// Provider resolves a bearer token to a user. Checkout's first step
// consults it before any fiscal or delivery data is accepted.
type Provider interface {
	Authenticate(ctx context.Context, token string) (*User, error)
}

var _ Provider = (*StaticProvider)(nil)

// StaticProvider authenticates against an in-memory token table. Tokens
// are stored as HMAC-SHA256 hashes so a leaked table does not leak
// credentials.
type StaticProvider struct {
	pepper []byte
	users  map[string]User // token hash -> user
}

// NewStaticProvider creates a StaticProvider with the given HMAC pepper.
func NewStaticProvider(pepper []byte) *StaticProvider {
	return &StaticProvider{pepper: pepper, users: make(map[string]User)}
}

// Register adds a token/user pair.
func (p *StaticProvider) Register(token string, user User) {
	p.users[p.hash(token)] = user
}

// Authenticate resolves the token, returning ErrUnauthenticated for
// unknown or empty tokens.
func (p *StaticProvider) Authenticate(_ context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	user, ok := p.users[p.hash(token)]
	if !ok {
		return nil, ErrUnauthenticated
	}
	return &user, nil
}

func (p *StaticProvider) hash(token string) string {
	mac := hmac.New(sha256.New, p.pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
