package secure

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
)

// ECB is AES in electronic-codebook mode with PKCS#7 padding and standard
// base64 output. Handsets in the field encrypt requests this way, so the
// inbound channel has to keep accepting it. Identical plaintexts produce
// identical ciphertexts; prefer GCM wherever the peer can be changed.
type ECB struct {
	block cipher.Block
}

// NewECB validates the key and prepares the block cipher.
func NewECB(key []byte) (*ECB, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return &ECB{block: block}, nil
}

// Encrypt pads and encrypts plaintext block by block.
func (e *ECB) Encrypt(plaintext []byte) (string, error) {
	size := e.block.BlockSize()
	padded := pad(plaintext, size)
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += size {
		e.block.Encrypt(out[i:i+size], padded[i:i+size])
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt.
func (e *ECB) Decrypt(ciphertext string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCiphertext, err)
	}
	size := e.block.BlockSize()
	if len(raw) == 0 || len(raw)%size != 0 {
		return nil, ErrMalformedCiphertext
	}
	out := make([]byte, len(raw))
	for i := 0; i < len(raw); i += size {
		e.block.Decrypt(out[i:i+size], raw[i:i+size])
	}
	return unpad(out, size)
}

func pad(data []byte, size int) []byte {
	n := size - len(data)%size
	return append(append([]byte(nil), data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, size int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrBadPadding
	}
	n := int(data[len(data)-1])
	if n == 0 || n > size || n > len(data) {
		return nil, ErrBadPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrBadPadding
		}
	}
	return data[:len(data)-n], nil
}
