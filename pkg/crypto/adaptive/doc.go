// Package adaptive seals small records with an AEAD cipher chosen for the
// host: AES-256-GCM where the CPU has AES instructions, ChaCha20-Poly1305
// elsewhere.
//
// Sealed output is nonce || ciphertext || tag. The additional data passed
// to Seal must be passed again to Open, which lets callers bind a record to
// its key so that ciphertexts cannot be swapped between records.
//
//	c, err := adaptive.New(key)
//	sealed, err := c.Seal(plaintext, []byte(id))
//	plaintext, err := c.Open(sealed, []byte(id))
package adaptive
