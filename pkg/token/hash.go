package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hash returns the hex encoded SHA-256 digest of s.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Verify reports whether candidate hashes to expectedHash.
// The comparison runs in constant time.
func Verify(candidate, expectedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(candidate)), []byte(expectedHash)) == 1
}

// Equal compares two secrets in constant time without leaking their lengths
// through early exit.
func Equal(a, b string) bool {
	return Verify(a, Hash(b))
}
