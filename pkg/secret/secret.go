// Package secret provides symmetric encryption for connection passwords.
//
// Secrets are sealed with XChaCha20-Poly1305 under a random 256-bit key
// persisted next to the connection database. The key is generated on first
// use and written atomically so a half-written key file can never be read
// back as valid.
package secret

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeyLength is the length of the persisted key in bytes (256 bits).
const KeyLength = chacha20poly1305.KeySize

// ErrInvalidSecret indicates the ciphertext was not produced with the
// current key or is malformed. Callers treat this as non-fatal and report
// the affected record rather than aborting batch operations.
var ErrInvalidSecret = errors.New("secret: invalid ciphertext or wrong key")

// Cipher encrypts and decrypts secret fields using the key persisted at a
// fixed path.
type Cipher struct {
	key []byte
}

// Open loads the key from keyPath, generating and persisting a new key if
// the file does not exist yet.
func Open(keyPath string) (*Cipher, error) {
	key, err := os.ReadFile(keyPath)
	if os.IsNotExist(err) {
		key, err = generateKey(keyPath)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("secret: failed to read key file: %w", err)
	}
	if len(key) != KeyLength {
		return nil, fmt.Errorf("secret: key file %s is corrupt: expected %d bytes, got %d", keyPath, KeyLength, len(key))
	}
	return &Cipher{key: key}, nil
}

// generateKey creates a fresh random key and writes it via a temp file and
// rename so readers never observe a partial key.
func generateKey(keyPath string) ([]byte, error) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("secret: failed to generate key: %w", err)
	}

	dir := filepath.Dir(keyPath)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("secret: failed to create key directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cm.key.*")
	if err != nil {
		return nil, fmt.Errorf("secret: failed to create temp key file: %w", err)
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("secret: failed to set key permissions: %w", err)
	}
	if _, err := tmp.Write(key); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("secret: failed to write key: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("secret: failed to close key file: %w", err)
	}
	if err := os.Rename(tmpPath, keyPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("secret: failed to persist key file: %w", err)
	}
	return key, nil
}

// Encrypt seals plaintext and returns a base64 string with the random
// nonce prepended to the ciphertext.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("secret: failed to create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secret: failed to generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Returns ErrInvalidSecret when the input is not
// valid base64, is too short, or fails authentication under the current key.
func (c *Cipher) Decrypt(ciphertext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("secret: failed to create cipher: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", ErrInvalidSecret
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrInvalidSecret
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrInvalidSecret
	}
	return string(plaintext), nil
}
