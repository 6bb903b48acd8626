package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// DefaultLength is the default number of random bytes in a generated token.
const DefaultLength = 16

// MinLength is the smallest accepted byte length (64 bits of entropy).
const MinLength = 8

// ErrLengthTooShort is returned when fewer than MinLength bytes are requested.
var ErrLengthTooShort = errors.New("token: length below minimum entropy")

// Generate returns DefaultLength random bytes encoded as Base64 RawURL.
func Generate() (string, error) {
	return GenerateWithLength(DefaultLength)
}

// GenerateWithLength returns length random bytes encoded as Base64 RawURL.
func GenerateWithLength(length int) (string, error) {
	if length < MinLength {
		return "", ErrLengthTooShort
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateWithPrefix returns prefix followed by a random Base64 RawURL body.
func GenerateWithPrefix(prefix string, length int) (string, error) {
	body, err := GenerateWithLength(length)
	if err != nil {
		return "", err
	}
	return prefix + body, nil
}

// EncodedLength reports the Base64 RawURL length of n random bytes.
func EncodedLength(n int) int {
	return base64.RawURLEncoding.EncodedLen(n)
}
