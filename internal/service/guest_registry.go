package service

import (
	"sync"
	"time"

	"github.com/fitstack/gymchat/internal/domain"
)

// GuestSessionRegistry holds the in-process, non-durable guest sessions.
// Sessions live only for this process: a restart drops them all. Expiry is
// enforced lazily on access and by the periodic Sweep. The clock is
// injected so expiry can be tested deterministically.
type GuestSessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]domain.GuestSession
	now      func() time.Time
	ttl      time.Duration
}

// NewGuestSessionRegistry creates an empty registry. A nil clock defaults
// to time.Now.
func NewGuestSessionRegistry(ttl time.Duration, now func() time.Time) *GuestSessionRegistry {
	if now == nil {
		now = time.Now
	}
	return &GuestSessionRegistry{
		sessions: make(map[string]domain.GuestSession),
		now:      now,
		ttl:      ttl,
	}
}

// Put registers a session code for a guest user and returns the session
func (r *GuestSessionRegistry) Put(code, userID string) domain.GuestSession {
	now := r.now().UTC()
	session := domain.GuestSession{
		Code:      code,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}

	r.mu.Lock()
	r.sessions[code] = session
	r.mu.Unlock()
	return session
}

// Get resolves a session code. A session past its expiry instant is removed
// and reported as not present.
func (r *GuestSessionRegistry) Get(code string) (domain.GuestSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[code]
	if !ok {
		return domain.GuestSession{}, false
	}
	if session.Expired(r.now().UTC()) {
		delete(r.sessions, code)
		return domain.GuestSession{}, false
	}
	return session, true
}

// Delete removes a session regardless of expiry
func (r *GuestSessionRegistry) Delete(code string) {
	r.mu.Lock()
	delete(r.sessions, code)
	r.mu.Unlock()
}

// Sweep removes every expired session and returns how many were dropped
func (r *GuestSessionRegistry) Sweep() int {
	now := r.now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for code, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, code)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions, expired entries included until
// the next access or sweep.
func (r *GuestSessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
