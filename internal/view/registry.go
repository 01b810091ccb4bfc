package view

import (
	"sync"
	"time"
)

type record struct {
	router    *Router
	expiresAt time.Time
}

// Registry holds one Router per live client session, keyed by the session's
// token JTI. Records expire with the access token; Touch extends them on use.
type Registry struct {
	ttl time.Duration

	mu      sync.Mutex
	records map[string]record
}

func NewRegistry(ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Registry{
		ttl:     ttl,
		records: make(map[string]record),
	}
}

// Attach registers a session that has just authenticated: its router starts
// at Loading and immediately receives the authenticated notification.
func (g *Registry) Attach(sessionID string) *Router {
	router := NewRouter()
	router.HandleAuthState(true)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.pruneLocked()
	g.records[sessionID] = record{router: router, expiresAt: time.Now().Add(g.ttl)}
	return router
}

// Lookup returns the session's router, re-creating one for sessions that
// re-appear after a registry restart (their token is still valid, so they
// restart at Consent exactly as a fresh tab would).
func (g *Registry) Lookup(sessionID string) *Router {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rec, ok := g.records[sessionID]; ok && time.Now().Before(rec.expiresAt) {
		rec.expiresAt = time.Now().Add(g.ttl)
		g.records[sessionID] = rec
		return rec.router
	}

	router := NewRouter()
	router.HandleAuthState(true)
	g.pruneLocked()
	g.records[sessionID] = record{router: router, expiresAt: time.Now().Add(g.ttl)}
	return router
}

// Detach drives the session's router to Auth and drops it. Used on sign-out.
func (g *Registry) Detach(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rec, ok := g.records[sessionID]; ok {
		rec.router.HandleAuthState(false)
		delete(g.records, sessionID)
	}
}

// Mutate runs fn under the registry lock against the session's router and
// returns the resulting screen.
func (g *Registry) Mutate(sessionID string, fn func(*Router)) Screen {
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[sessionID]
	if !ok || time.Now().After(rec.expiresAt) {
		router := NewRouter()
		router.HandleAuthState(true)
		rec = record{router: router}
	}
	rec.expiresAt = time.Now().Add(g.ttl)
	g.records[sessionID] = rec

	fn(rec.router)
	return rec.router.Current()
}

func (g *Registry) pruneLocked() {
	now := time.Now()
	for id, rec := range g.records {
		if now.After(rec.expiresAt) {
			delete(g.records, id)
		}
	}
}
