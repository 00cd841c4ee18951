// Package secure seals and opens the JSON envelopes exchanged on the purge
// endpoint. The envelope is an opaque transport boundary: the core never
// inspects it beyond the decoded payload.
package secure

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length of a session transport key in bytes.
const KeySize = chacha20poly1305.KeySize

// ErrOpenFailed is returned when an envelope cannot be authenticated or
// decoded with the supplied key.
var ErrOpenFailed = errors.New("envelope could not be opened")

// NewKey generates a random session transport key.
func NewKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate session key: %w", err)
	}
	return key, nil
}

// Seal marshals v to JSON, encrypts it with the session key and returns the
// base64 envelope. The nonce is prepended to the ciphertext.
func Seal(key []byte, v interface{}) (string, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("failed to build cipher: %w", err)
	}

	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open decodes and decrypts an envelope into v. Any tampering, truncation or
// key mismatch yields ErrOpenFailed.
func Open(key []byte, envelope string, v interface{}) error {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return fmt.Errorf("failed to build cipher: %w", err)
	}

	sealed, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return ErrOpenFailed
	}
	if len(sealed) < aead.NonceSize() {
		return ErrOpenFailed
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return ErrOpenFailed
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		return ErrOpenFailed
	}
	return nil
}
