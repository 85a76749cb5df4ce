// Package credentials turns plaintext passwords into their stored form and
// checks candidates against it.
package credentials

import (
	"encoding/hex"

	"github.com/dmitrijs2005/invkeeper/internal/cryptox"
)

// Hasher is the contract the auth service depends on.
type Hasher interface {
	Hash(plaintext string) string
	Verify(plaintext, hashed string) bool
}

// Store derives password hashes with argon2id keyed by a server-wide pepper.
// Hash is a pure function of the plaintext for a given pepper and params, so
// equal passwords produce equal hashes.
type Store struct {
	pepper []byte
	params cryptox.KDFParams
}

// NewStore returns a Store using cryptox.DefaultKDFParams.
func NewStore(pepper string) *Store {
	return NewStoreWithParams(pepper, cryptox.DefaultKDFParams)
}

func NewStoreWithParams(pepper string, params cryptox.KDFParams) *Store {
	return &Store{pepper: []byte(pepper), params: params}
}

// Hash returns the lowercase hex encoding of the derived key.
func (s *Store) Hash(plaintext string) string {
	return hex.EncodeToString(cryptox.DeriveKey([]byte(plaintext), s.pepper, s.params))
}

// Verify reports whether Hash(plaintext) equals hashed.
func (s *Store) Verify(plaintext, hashed string) bool {
	return cryptox.Equal([]byte(s.Hash(plaintext)), []byte(hashed))
}
