package database

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const encryptionKeySize = 32

// ErrNoEncryptionKey is returned when secrets are used without a key.
var ErrNoEncryptionKey = errors.New("encryption key not configured")

// ParseEncryptionKey decodes a base64 AES-256 key as found in ENCRYPTION_KEY
func ParseEncryptionKey(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, ErrNoEncryptionKey
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode encryption key from base64: %w", err)
	}
	if len(key) != encryptionKeySize {
		return nil, fmt.Errorf("invalid encryption key length: got %d bytes, expected %d bytes for AES-256", len(key), encryptionKeySize)
	}
	return key, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) == 0 {
		return nil, ErrNoEncryptionKey
	}
	if len(key) != encryptionKeySize {
		return nil, fmt.Errorf("invalid key length: got %d bytes, expected %d", len(key), encryptionKeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// EncryptSecret seals plaintext with AES-256-GCM. The output is the nonce
// followed by the ciphertext and tag.
func EncryptSecret(plaintext string, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return gcm.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

// DecryptSecret reverses EncryptSecret
func DecryptSecret(sealed []byte, key []byte) (string, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(sealed) < nonceSize {
		return "", errors.New("encrypted data too short - missing nonce")
	}

	plaintext, err := gcm.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}
	return string(plaintext), nil
}
