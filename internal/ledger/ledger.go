package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUserNotFound is returned when no user is registered for a phone number.
	ErrUserNotFound = errors.New("user not found")

	// ErrPhoneTaken is returned when registering a phone number that already
	// belongs to a user.
	ErrPhoneTaken = errors.New("phone number already registered")

	// ErrInsufficientFunds occurs when a debit would take a balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateTransaction indicates a transaction with the same kind and
	// request id was already recorded, so the operation must not be applied again.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrInvalidAmount is returned for amounts that are not positive, exceed
	// MaxAmount or carry more than AmountScale decimal places.
	ErrInvalidAmount = errors.New("invalid amount")
)

const (
	// StatusCompleted is the only status produced for ledger entries.
	StatusCompleted = "completed"

	// KindLoadFunds marks a wallet top-up.
	KindLoadFunds = "load_funds"
	// KindTransferFunds marks a wallet-to-wallet transfer.
	KindTransferFunds = "transfer_funds"
)

// User is a registered wallet owner.
type User struct {
	ID        string
	Phone     string
	FirstName string
	PINHash   []byte
	Balance   decimal.Decimal
	CreatedAt time.Time
}

// Transaction is an immutable record of a completed balance movement.
// SenderID is empty for top-ups.
type Transaction struct {
	ID          string
	RequestID   string
	Kind        string
	SenderID    string
	ReceiverID  string
	Amount      decimal.Decimal
	Description string
	Status      string
	CreatedAt   time.Time
}

// Store is the account store consumed by the wallet workflows.
type Store interface {
	UserByPhone(ctx context.Context, phone string) (User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	// WithinTx runs fn as one unit of work. Either every write made through the
	// Tx is applied or none is.
	WithinTx(ctx context.Context, fn func(Tx) error) error
}

// Tx exposes the mutations allowed inside a unit of work.
type Tx interface {
	// LockUsers loads and locks the users owning the given phones. Phones with
	// no user are absent from the result.
	LockUsers(ctx context.Context, phones ...string) (map[string]User, error)
	CreateTransaction(ctx context.Context, t Transaction) (Transaction, error)
	// AdjustBalance adds delta to the user's balance and returns the new
	// balance. A result below zero fails with ErrInsufficientFunds.
	AdjustBalance(ctx context.Context, userID string, delta decimal.Decimal) (decimal.Decimal, error)
}
