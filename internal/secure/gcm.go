package secure

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GCM is AES-GCM with a random nonce prepended to the sealed payload.
type GCM struct {
	aead cipher.AEAD
}

// NewGCM validates the key and prepares the AEAD.
func NewGCM(key []byte) (*GCM, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &GCM{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh nonce. Output is URL-safe base64 so
// it survives SMS transports that mangle '+' and '/'.
func (g *GCM) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, g.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("read nonce: %w", err)
	}
	sealed := g.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a payload produced by Encrypt.
func (g *GCM) Decrypt(ciphertext string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	ns := g.aead.NonceSize()
	if len(raw) < ns+g.aead.Overhead() {
		return nil, ErrMalformedCiphertext
	}
	plain, err := g.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	return plain, nil
}
