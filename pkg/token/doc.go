// Package token provides random identifier generation and hashing helpers.
//
// Identifiers are drawn from crypto/rand and encoded with Base64 RawURL so
// they can be embedded in URL paths without escaping:
//
//	id, err := token.GenerateWithPrefix("trk_", 16) // trk_ + 22 chars
//
// Secrets that must be compared (for example the admin API key) are
// compared through Verify, which hashes both sides with SHA-256 and uses a
// constant-time comparison.
package token
