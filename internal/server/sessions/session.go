// Package sessions issues, validates and revokes the opaque bearer tokens
// that identify logged-in users.
//
// A session stores a snapshot of the user's identity taken at login. It lives
// for common.SessionLifetime from issuance; using it does not extend that.
// Expired sessions are removed when they are next looked up, and optionally
// by a periodic Sweeper.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/invkeeper/internal/common"
)

// Session is the identity snapshot bound to a token.
type Session struct {
	Token     string    `json:"-"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// ExpiresAt is the first instant at which the session is no longer valid.
func (s Session) ExpiresAt() time.Time {
	return s.CreatedAt.Add(common.SessionLifetime)
}

// ExpiredAt reports whether the session is expired at now.
func (s Session) ExpiredAt(now time.Time) bool {
	return now.Sub(s.CreatedAt) >= common.SessionLifetime
}

// Registry is the session lifecycle contract.
//
// Validate returns common.ErrTokenInvalidOrExpired for unknown, revoked and
// expired tokens. Revoke of an unknown token is not an error.
type Registry interface {
	Issue(ctx context.Context, userID int64, username string, isAdmin bool) (string, error)
	Validate(ctx context.Context, token string) (*Session, error)
	Revoke(ctx context.Context, token string) error
}

// Counter is implemented by registries that can report their live size.
type Counter interface {
	Len() int
}

// Sweepable is implemented by registries whose expired entries must be
// pruned explicitly.
type Sweepable interface {
	Sweep() int
}

// maxIssueAttempts bounds retries when a freshly drawn token is already live.
const maxIssueAttempts = 3

type options struct {
	now      func() time.Time
	newToken func() (string, error)
}

// Option configures a registry.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTokenSource replaces the random token generator.
func WithTokenSource(fn func() (string, error)) Option {
	return func(o *options) { o.newToken = fn }
}

func newOptions(opts []Option) options {
	o := options{
		now:      time.Now,
		newToken: NewToken,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewToken draws common.TokenEntropyBytes random bytes and encodes them
// URL-safe.
func NewToken() (string, error) {
	return common.MakeRandURLString(common.TokenEntropyBytes)
}
