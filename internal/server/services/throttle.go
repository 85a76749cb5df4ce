package services

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const throttleCacheSize = 10000

// LoginThrottle counts failed logins per submitted username. After max
// failures the username is blocked until window has passed since the last
// failure. Usernames are tracked whether or not an account exists.
//
// A nil *LoginThrottle never blocks.
type LoginThrottle struct {
	mu       sync.Mutex
	failures *expirable.LRU[string, int]
	max      int
}

// NewLoginThrottle returns nil when maxAttempts or window is not positive.
func NewLoginThrottle(maxAttempts int, window time.Duration) *LoginThrottle {
	if maxAttempts <= 0 || window <= 0 {
		return nil
	}
	return &LoginThrottle{
		failures: expirable.NewLRU[string, int](throttleCacheSize, nil, window),
		max:      maxAttempts,
	}
}

func (t *LoginThrottle) Blocked(username string) bool {
	if t == nil {
		return false
	}
	n, ok := t.failures.Get(username)
	return ok && n >= t.max
}

func (t *LoginThrottle) Fail(username string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	n, _ := t.failures.Peek(username)
	t.failures.Add(username, n+1)
}

func (t *LoginThrottle) Reset(username string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures.Remove(username)
}
