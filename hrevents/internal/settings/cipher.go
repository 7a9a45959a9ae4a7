package settings

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var (
	// ErrEmptyKey is returned when no encryption key is configured.
	ErrEmptyKey = errors.New("settings encryption key is empty")
	// ErrDecrypt is returned when a sealed value fails authentication.
	ErrDecrypt = errors.New("failed to decrypt sealed value")
)

// Cipher seals secrets stored in the settings record with NaCl secretbox.
type Cipher struct {
	key [32]byte
}

// NewCipher derives a 32-byte secretbox key from the configured passphrase.
func NewCipher(passphrase string) (*Cipher, error) {
	if passphrase == "" {
		return nil, ErrEmptyKey
	}
	return &Cipher{key: sha256.Sum256([]byte(passphrase))}, nil
}

// Seal encrypts plaintext. The random nonce is prepended to the output.
func (c *Cipher) Seal(plaintext string) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &c.key), nil
}

// Open decrypts a value produced by Seal.
func (c *Cipher) Open(sealed []byte) (string, error) {
	if len(sealed) < nonceSize+secretbox.Overhead {
		return "", ErrDecrypt
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &c.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
