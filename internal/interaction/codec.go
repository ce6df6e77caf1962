package interaction

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/epaisa/epaisa_sms/internal/secure"
)

// ChunkSize is the number of characters per interaction-id fragment. SMS
// templates quote the first three fragments.
const ChunkSize = 30

// ErrEncode is returned when no interaction id could be produced.
var ErrEncode = errors.New("encode interaction id")

type status struct {
	RequestID string `json:"r"`
	OK        bool   `json:"s"`
	Millis    int64  `json:"d"`
}

// Codec turns a request outcome into an encrypted, chunked interaction id.
type Codec struct {
	cipher secure.Cipher
	size   int
	now    func() time.Time
}

// NewCodec builds a codec using the shared cipher.
func NewCodec(c secure.Cipher) *Codec {
	return &Codec{cipher: c, size: ChunkSize, now: time.Now}
}

// WithClock overrides the timestamp source.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Encode encrypts {requestId, outcome, timestamp} and splits the ciphertext.
func (c *Codec) Encode(requestID string, ok bool) ([]string, error) {
	if c == nil || c.cipher == nil {
		return nil, fmt.Errorf("%w: cipher not configured", ErrEncode)
	}
	if requestID == "" {
		return nil, fmt.Errorf("%w: empty request id", ErrEncode)
	}

	payload, err := json.Marshal(status{RequestID: requestID, OK: ok, Millis: c.now().UnixMilli()})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	sealed, err := c.cipher.Encrypt(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if sealed == "" {
		return nil, fmt.Errorf("%w: empty ciphertext", ErrEncode)
	}
	return Split(sealed, c.size), nil
}

// Split cuts s into consecutive fragments of size characters; the last one may
// be shorter. An empty string yields no fragments.
func Split(s string, size int) []string {
	if size < 1 {
		panic("interaction: chunk size must be positive")
	}
	chunks := make([]string, 0, (len(s)+size-1)/size)
	for i := 0; i < len(s); i += size {
		end := i + size
		if end > len(s) {
			end = len(s)
		}
		chunks = append(chunks, s[i:end])
	}
	return chunks
}
