// Package repository stores browser sessions.
package repository

import (
	"context"
	"sync"
	"time"

	"github.com/inesdata/dataspace-tools/internal/exchange/domain"
)

// MemorySessionRepository keeps sessions in process memory. Sessions do not
// survive a restart.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	now      func() time.Time
}

// NewMemorySessionRepository creates an empty repository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
}

// Create stores a new session.
func (r *MemorySessionRepository) Create(ctx context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[session.ID] = session
	return nil
}

// Get returns a live session. Expired sessions are dropped and reported as not found.
func (r *MemorySessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if session.Expired(r.now()) {
		_ = r.Delete(ctx, id)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session. Deleting an unknown session is a no-op.
func (r *MemorySessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// DeleteExpired removes expired sessions and returns them so callers can
// release what they hold.
func (r *MemorySessionRepository) DeleteExpired(ctx context.Context) ([]*domain.Session, error) {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	expired := make([]*domain.Session, 0)
	for id, session := range r.sessions {
		if session.Expired(now) {
			expired = append(expired, session)
			delete(r.sessions, id)
		}
	}
	return expired, nil
}

// DeleteAll empties the repository and returns every session it held.
func (r *MemorySessionRepository) DeleteAll(ctx context.Context) ([]*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]*domain.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		all = append(all, session)
	}
	r.sessions = make(map[string]*domain.Session)
	return all, nil
}
