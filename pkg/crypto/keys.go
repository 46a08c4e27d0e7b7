package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// Sealer encrypts credentials at rest with a key derived from the
// configured secret via argon2id.
//
// @ref https://cheatsheetseries.owasp.org/cheatsheets/Password_Storage_Cheat_Sheet.html
type Sealer struct {
	key [32]byte
}

const (
	SaltLength = 16

	// argon2id parameters
	keyIterations  uint32 = 3
	keyMemory      uint32 = 64 * 1024 // 64 MB
	keyParallelism uint8  = 2

	nonceLength = 24
)

var ErrSealedTooShort = errors.New("sealed payload too short")

// GenerateSalt returns a fresh random salt for key derivation.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// NewSealer derives the sealing key from secret and salt.
func NewSealer(secret string, salt []byte) *Sealer {
	s := &Sealer{}
	key := argon2.IDKey([]byte(secret), salt, keyIterations, keyMemory, keyParallelism, 32)
	copy(s.key[:], key)
	return s
}

// Seal encrypts plain, prefixing the random nonce to the box.
func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &s.key), nil
}

// Open decrypts a payload produced by Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceLength {
		return nil, ErrSealedTooShort
	}
	var nonce [nonceLength]byte
	copy(nonce[:], sealed[:nonceLength])
	plain, ok := secretbox.Open(nil, sealed[nonceLength:], &nonce, &s.key)
	if !ok {
		return nil, errors.New("failed to open sealed payload")
	}
	return plain, nil
}
