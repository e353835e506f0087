// Package vault provides security primitives: deterministic password digests
// and TLS certificate generation.
package vault

import (
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// DefaultPepper salts digests when no installation-specific pepper is configured.
const DefaultPepper = "granjapro/identity/v1"

// Argon2id parameters. Changing any of them invalidates every stored digest.
const (
	argonTime    = 2
	argonMemory  = 19 * 1024 // KiB
	argonThreads = 1
	digestBytes  = 32
)

// Digester turns plaintext passwords into fixed-length lowercase hex digests.
// The same pepper and plaintext always produce the same digest.
type Digester struct {
	pepper []byte
}

// NewDigester returns a Digester salted with pepper, or DefaultPepper when empty.
func NewDigester(pepper string) *Digester {
	if pepper == "" {
		pepper = DefaultPepper
	}
	return &Digester{pepper: []byte(pepper)}
}

// Digest returns the 64-character hex argon2id digest of plaintext.
func (d *Digester) Digest(plaintext string) string {
	key := argon2.IDKey([]byte(plaintext), d.pepper, argonTime, argonMemory, argonThreads, digestBytes)
	return hex.EncodeToString(key)
}

// Matches reports whether plaintext hashes to digest.
func (d *Digester) Matches(digest, plaintext string) bool {
	computed := d.Digest(plaintext)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}
