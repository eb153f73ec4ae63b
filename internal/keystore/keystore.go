// Package keystore seals wallet private keys for storage. The database only
// ever sees AES-256-GCM ciphertext under a key-encryption key supplied via
// config; plaintext keys exist in memory only while deriving addresses and
// signing.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	// ErrSealedKey is returned when ciphertext cannot be opened with the
	// configured key-encryption key.
	ErrSealedKey = errors.New("cannot open sealed wallet key")
)

type Keystore struct {
	aead cipher.AEAD
}

// New builds a keystore from a hex-encoded 32-byte key-encryption key.
func New(hexKEK string) (*Keystore, error) {
	kek, err := hex.DecodeString(hexKEK)
	if err != nil {
		return nil, fmt.Errorf("decode wallet kek: %w", err)
	}
	if len(kek) != 32 {
		return nil, fmt.Errorf("wallet kek must be 32 bytes, got %d", len(kek))
	}

	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Keystore{aead: aead}, nil
}

// Seal encrypts a private key for storage, returning ciphertext and the
// random nonce it was sealed under.
func (k *Keystore) Seal(plaintext string) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, k.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	return k.aead.Seal(nil, nonce, []byte(plaintext), nil), nonce, nil
}

// Open decrypts a stored private key. Rows migrated from the legacy layout
// carry plaintext with an empty nonce and are passed through unchanged; the
// caller is expected to reseal them.
func (k *Keystore) Open(ciphertext, nonce []byte) (string, error) {
	if len(nonce) == 0 {
		return string(ciphertext), nil
	}
	plain, err := k.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrSealedKey
	}
	return string(plain), nil
}

// IsLegacy reports whether stored key material predates sealing.
func IsLegacy(nonce []byte) bool {
	return len(nonce) == 0
}
