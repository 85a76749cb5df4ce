// Package cryptox wraps the key-derivation primitive used for password
// storage.
package cryptox

import (
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// KDFParams are the argon2id cost parameters.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultKDFParams follow the argon2id recommendation of RFC 9106 for
// memory-constrained environments.
var DefaultKDFParams = KDFParams{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
}

// DeriveKey stretches secret with salt using argon2id. The output depends
// only on its inputs.
func DeriveKey(secret, salt []byte, p KDFParams) []byte {
	return argon2.IDKey(secret, salt, p.Time, p.Memory, p.Threads, p.KeyLen)
}

// Equal reports whether a and b hold the same bytes without leaking the
// position of the first difference through timing.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
