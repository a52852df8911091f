// Package session supplies the local user's identity for the duration of a
// session. The store treats the identity as an opaque constant; how tokens
// are minted and secured is someone else's problem.
package session

import (
	"context"
	"errors"
	"sync"
)

var ErrUnknownToken = errors.New("unknown session token")

// Identity is the resolved session owner.
type Identity struct {
	UserID   string
	Username string
}

// Provider resolves an opaque bearer token into an identity.
type Provider interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

// StaticProvider keeps a fixed token registry, seeded at startup.
type StaticProvider struct {
	mu       sync.RWMutex
	sessions map[string]Identity
}

// NewStaticProvider builds an empty provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{sessions: make(map[string]Identity)}
}

// Register binds a token to an identity.
func (p *StaticProvider) Register(token string, identity Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[token] = identity
}

// Resolve looks the token up.
func (p *StaticProvider) Resolve(_ context.Context, token string) (Identity, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	identity, ok := p.sessions[token]
	if !ok {
		return Identity{}, ErrUnknownToken
	}
	return identity, nil
}
