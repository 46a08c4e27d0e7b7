package crypto

import (
	"crypto/rand"
	"errors"
)

// URL-safe alphabet, 64 characters so every 6 random bits map to
// exactly one character with no rejection loop.
const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

var ErrIDLengthInvalid = errors.New("id length must be positive")

// GenerateID returns a random URL-safe identifier of the given length.
// Used for per-instance ids in log fields; not a session token.
func GenerateID(length int) (string, error) {
	if length <= 0 {
		return "", ErrIDLengthInvalid
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = idAlphabet[b&63]
	}
	return string(buf), nil
}
