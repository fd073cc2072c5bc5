// Package auth supplies the bearer credential used for cart API calls.
package auth

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Provider returns the current credential. ok=false means the user is not
// logged in; callers must not retry.
type Provider interface {
	Credential(ctx context.Context) (token string, ok bool)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) (string, bool)

func (f ProviderFunc) Credential(ctx context.Context) (string, bool) {
	return f(ctx)
}

type static string

// Static returns a provider for a fixed token. An empty token is absent.
func Static(token string) Provider {
	return static(token)
}

func (s static) Credential(context.Context) (string, bool) {
	return string(s), s != ""
}

// Session holds the credential of the logged in user for the life of the
// process.
type Session struct {
	mu    sync.RWMutex
	token string
	user  string
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Login(token, user string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.user = user
}

func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = ""
}

func (s *Session) User() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) Credential(context.Context) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Coalescing wraps a slow credential lookup so that concurrent callers share
// a single call.
type Coalescing struct {
	load ProviderFunc
	sfg  singleflight.Group
}

func NewCoalescing(load ProviderFunc) *Coalescing {
	return &Coalescing{load: load}
}

type lookup struct {
	token string
	ok    bool
}

func (c *Coalescing) Credential(ctx context.Context) (string, bool) {
	v, _, _ := c.sfg.Do("credential", func() (interface{}, error) {
		token, ok := c.load(ctx)
		return lookup{token: token, ok: ok && token != ""}, nil
	})
	res := v.(lookup)
	return res.token, res.ok
}
