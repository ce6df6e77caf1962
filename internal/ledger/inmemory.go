package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type inMemoryStore struct {
	mu           sync.Mutex
	users        map[string]User // keyed by ID
	phones       map[string]string
	transactions map[string]Transaction
	requests     map[string]string // kind:requestID -> transaction ID
}

// NewInMemory creates a concurrency-safe in-memory store useful for unit tests
// and local development.
func NewInMemory() Store {
	return &inMemoryStore{
		users:        make(map[string]User),
		phones:       make(map[string]string),
		transactions: make(map[string]Transaction),
		requests:     make(map[string]string),
	}
}

func (s *inMemoryStore) UserByPhone(_ context.Context, phone string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.phones[phone]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return s.users[id], nil
}

func (s *inMemoryStore) CreateUser(_ context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.phones[user.Phone]; exists {
		return User{}, ErrPhoneTaken
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Balance.IsNegative() {
		return User{}, ErrInsufficientFunds
	}
	s.users[user.ID] = user
	s.phones[user.Phone] = user.ID
	return user, nil
}

// WithinTx serialises units of work behind the store mutex and stages writes
// in copies that are only swapped in when fn succeeds.
func (s *inMemoryStore) WithinTx(ctx context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &inMemoryTx{
		users:        make(map[string]User, len(s.users)),
		transactions: make(map[string]Transaction),
		requests:     make(map[string]string),
		parent:       s,
	}
	for id, u := range s.users {
		tx.users[id] = u
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.users = tx.users
	for id, t := range tx.transactions {
		s.transactions[id] = t
	}
	for key, id := range tx.requests {
		s.requests[key] = id
	}
	return nil
}

type inMemoryTx struct {
	users        map[string]User
	transactions map[string]Transaction
	requests     map[string]string
	parent       *inMemoryStore
}

func (t *inMemoryTx) LockUsers(_ context.Context, phones ...string) (map[string]User, error) {
	out := make(map[string]User, len(phones))
	for _, phone := range phones {
		if id, ok := t.parent.phones[phone]; ok {
			out[phone] = t.users[id]
		}
	}
	return out, nil
}

func (t *inMemoryTx) CreateTransaction(_ context.Context, txn Transaction) (Transaction, error) {
	if !ValidAmount(txn.Amount) {
		return Transaction{}, ErrInvalidAmount
	}
	if _, ok := t.users[txn.ReceiverID]; !ok {
		return Transaction{}, fmt.Errorf("receiver %s: %w", txn.ReceiverID, ErrUserNotFound)
	}
	if txn.SenderID != "" {
		if _, ok := t.users[txn.SenderID]; !ok {
			return Transaction{}, fmt.Errorf("sender %s: %w", txn.SenderID, ErrUserNotFound)
		}
	}
	if txn.RequestID == "" {
		txn.RequestID = uuid.NewString()
	}
	key := txn.Kind + ":" + txn.RequestID
	if _, exists := t.parent.requests[key]; exists {
		return Transaction{}, ErrDuplicateTransaction
	}
	if _, exists := t.requests[key]; exists {
		return Transaction{}, ErrDuplicateTransaction
	}

	txn.ID = uuid.NewString()
	if txn.Status == "" {
		txn.Status = StatusCompleted
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	t.transactions[txn.ID] = txn
	t.requests[key] = txn.ID
	return txn, nil
}

func (t *inMemoryTx) AdjustBalance(_ context.Context, userID string, delta decimal.Decimal) (decimal.Decimal, error) {
	if !ValidAmount(delta.Abs()) {
		return decimal.Zero, ErrInvalidAmount
	}
	u, ok := t.users[userID]
	if !ok {
		return decimal.Zero, ErrUserNotFound
	}
	next := u.Balance.Add(delta)
	if next.IsNegative() {
		return u.Balance, ErrInsufficientFunds
	}
	u.Balance = next
	t.users[userID] = u
	return next, nil
}
