package adaptive

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the key length accepted by every cipher, in bytes.
const KeySize = 32

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-256-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

var (
	// ErrKeySize is returned for keys that are not KeySize bytes long.
	ErrKeySize = fmt.Errorf("adaptive: key must be %d bytes", KeySize)
	// ErrShortCiphertext is returned by Open for input shorter than the nonce.
	ErrShortCiphertext = errors.New("adaptive: ciphertext too short")
	// ErrOpen is returned when authentication fails.
	ErrOpen = errors.New("adaptive: message authentication failed")
)

// Cipher provides authenticated encryption. Implementations are safe for
// concurrent use.
type Cipher interface {
	Type() CipherType
	// Seal encrypts plaintext and authenticates it together with ad.
	Seal(plaintext, ad []byte) ([]byte, error)
	// Open reverses Seal. ad must match the value given to Seal.
	Open(sealed, ad []byte) ([]byte, error)
	// Overhead is the number of bytes Seal adds to the plaintext.
	Overhead() int
}

// New returns the preferred cipher for this platform.
func New(key []byte) (Cipher, error) {
	if hasHardwareAES() {
		return NewWithType(key, CipherAESGCM)
	}
	return NewWithType(key, CipherChaCha20)
}

// NewWithType returns a cipher of the given type.
func NewWithType(key []byte, typ CipherType) (Cipher, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}

	var (
		aead cipher.AEAD
		err  error
	)
	switch typ {
	case CipherAESGCM:
		var block cipher.Block
		block, err = aes.NewCipher(key)
		if err == nil {
			aead, err = cipher.NewGCM(block)
		}
	case CipherChaCha20:
		aead, err = chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("adaptive: unknown cipher type %q", typ)
	}
	if err != nil {
		return nil, err
	}
	return &aeadCipher{typ: typ, aead: aead}, nil
}

// ParseKey decodes a key written as hex or standard base64.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrKeySize
	}
	if key, err := hex.DecodeString(s); err == nil {
		if len(key) != KeySize {
			return nil, ErrKeySize
		}
		return key, nil
	}
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("adaptive: key is neither hex nor base64")
	}
	if len(key) != KeySize {
		return nil, ErrKeySize
	}
	return key, nil
}

// hasHardwareAES reports whether crypto/aes is hardware accelerated on
// this architecture.
func hasHardwareAES() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64", "s390x", "ppc64le":
		return true
	default:
		return false
	}
}

type aeadCipher struct {
	typ  CipherType
	aead cipher.AEAD
}

func (c *aeadCipher) Type() CipherType { return c.typ }

func (c *aeadCipher) Overhead() int {
	return c.aead.NonceSize() + c.aead.Overhead()
}

func (c *aeadCipher) Seal(plaintext, ad []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	out := make([]byte, ns, ns+len(plaintext)+c.aead.Overhead())
	if _, err := rand.Read(out); err != nil {
		return nil, fmt.Errorf("adaptive: nonce: %w", err)
	}
	return c.aead.Seal(out, out[:ns], plaintext, ad), nil
}

func (c *aeadCipher) Open(sealed, ad []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(sealed) < ns+c.aead.Overhead() {
		return nil, ErrShortCiphertext
	}
	plaintext, err := c.aead.Open(nil, sealed[:ns], sealed[ns:], ad)
	if err != nil {
		return nil, ErrOpen
	}
	return plaintext, nil
}
