package common

import "time"

// SessionCookieName is the cookie that carries the session token between
// the browser and the HTTP API.
const SessionCookieName = "token"

// SessionLifetime is how long a session stays valid after login. It does not
// slide on use.
const SessionLifetime = 24 * time.Hour

// TokenEntropyBytes is the number of random bytes behind every session token.
const TokenEntropyBytes = 32
