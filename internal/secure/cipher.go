package secure

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidKey is returned when the key is empty or not a valid AES key size.
	ErrInvalidKey = errors.New("invalid encryption key")
	// ErrMalformedCiphertext indicates the input is not decodable or not block aligned.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
	// ErrBadPadding indicates PKCS#7 padding could not be removed after decryption.
	ErrBadPadding = errors.New("bad padding")
)

const (
	// ModeECB is the legacy handset-compatible mode.
	ModeECB = "ecb"
	// ModeGCM is authenticated AES-GCM with a random nonce per message.
	ModeGCM = "gcm"
)

// Cipher encrypts and decrypts text payloads under a process-wide key.
type Cipher interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
}

// New builds the cipher for the given mode name.
func New(mode, key string) (Cipher, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeECB:
		return NewECB([]byte(key))
	case ModeGCM:
		return NewGCM([]byte(key))
	default:
		return nil, fmt.Errorf("unsupported cipher mode %q", mode)
	}
}

func checkKey(key []byte) error {
	switch len(key) {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("%w: length %d", ErrInvalidKey, len(key))
	}
}
