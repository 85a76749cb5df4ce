package sessions

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/invkeeper/internal/common"
)

var errTokenCollision = errors.New("session: could not draw an unused token")

// MemoryRegistry keeps sessions in a process-local map guarded by a mutex.
// All sessions are lost when the process exits.
type MemoryRegistry struct {
	mu       sync.Mutex
	sessions map[string]Session
	opts     options
}

func NewMemoryRegistry(opts ...Option) *MemoryRegistry {
	return &MemoryRegistry{
		sessions: make(map[string]Session),
		opts:     newOptions(opts),
	}
}

func (r *MemoryRegistry) Issue(_ context.Context, userID int64, username string, isAdmin bool) (string, error) {
	for range maxIssueAttempts {
		token, err := r.opts.newToken()
		if err != nil {
			return "", fmt.Errorf("session: failed to generate token: %w", err)
		}

		r.mu.Lock()
		if _, taken := r.sessions[token]; taken {
			r.mu.Unlock()
			continue
		}
		r.sessions[token] = Session{
			Token:     token,
			UserID:    userID,
			Username:  username,
			IsAdmin:   isAdmin,
			CreatedAt: r.opts.now(),
		}
		r.mu.Unlock()

		return token, nil
	}
	return "", errTokenCollision
}

func (r *MemoryRegistry) Validate(_ context.Context, token string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[token]
	if !ok {
		return nil, common.ErrTokenInvalidOrExpired
	}
	if s.ExpiredAt(r.opts.now()) {
		delete(r.sessions, token)
		return nil, common.ErrTokenInvalidOrExpired
	}
	return &s, nil
}

func (r *MemoryRegistry) Revoke(_ context.Context, token string) error {
	r.mu.Lock()
	delete(r.sessions, token)
	r.mu.Unlock()
	return nil
}

// Sweep deletes every expired session and returns how many were removed.
func (r *MemoryRegistry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.opts.now()
	removed := 0
	for token, s := range r.sessions {
		if s.ExpiredAt(now) {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, including expired ones not yet
// reaped.
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
