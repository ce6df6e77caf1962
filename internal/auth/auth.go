package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrChannelMismatch means the inbound channel identity is not the phone
	// number the request claims to act for.
	ErrChannelMismatch = errors.New("message sender and registered number are not same")

	// ErrPINMismatch means the supplied PIN does not match the stored secret.
	ErrPINMismatch = errors.New("invalid PIN")
)

// ChannelAuthenticator binds the SMS sender identity to a local phone number.
type ChannelAuthenticator struct {
	Prefix string
}

// NewChannelAuthenticator builds an authenticator for a country-code prefix
// such as "91".
func NewChannelAuthenticator(prefix string) ChannelAuthenticator {
	return ChannelAuthenticator{Prefix: strings.TrimPrefix(strings.TrimSpace(prefix), "+")}
}

// Authorize checks prefix+claimedPhone == sender.
func (a ChannelAuthenticator) Authorize(sender, claimedPhone string) error {
	if sender == "" || claimedPhone == "" || a.Prefix+claimedPhone != sender {
		return fmt.Errorf("%w: sender %q", ErrChannelMismatch, sender)
	}
	return nil
}

// HashPIN hashes a PIN for storage. An empty PIN yields a nil hash, which no
// PIN will ever verify against.
func HashPIN(pin string) ([]byte, error) {
	if pin == "" {
		return nil, nil
	}
	return bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
}

// VerifyPIN compares pin against the stored hash in constant time.
func VerifyPIN(hash []byte, pin string) error {
	if len(hash) == 0 || pin == "" {
		return ErrPINMismatch
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(pin)); err != nil {
		return ErrPINMismatch
	}
	return nil
}
