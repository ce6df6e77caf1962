package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const uniqueViolation = "23505"

// Schema creates the tables used by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
    id          UUID PRIMARY KEY,
    phone       TEXT NOT NULL UNIQUE,
    first_name  TEXT NOT NULL DEFAULT '',
    pin_hash    BYTEA,
    balance     NUMERIC(20, 4) NOT NULL DEFAULT 0 CHECK (balance >= 0),
    created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
    id           UUID PRIMARY KEY,
    request_id   TEXT NOT NULL,
    kind         TEXT NOT NULL,
    sender_id    UUID REFERENCES users (id),
    receiver_id  UUID NOT NULL REFERENCES users (id),
    amount       NUMERIC(20, 4) NOT NULL CHECK (amount > 0),
    description  TEXT NOT NULL DEFAULT '',
    status       TEXT NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL,
    UNIQUE (kind, request_id)
);`

// PostgresStore persists users and transactions in PostgreSQL. Every unit of
// work runs in one database transaction with the affected user rows locked.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgres constructs a Postgres-backed store.
func NewPostgres(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema applies Schema. Statements are idempotent.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const userColumns = `id, phone, first_name, pin_hash, balance, created_at`

func scanUser(row pgx.Row) (User, error) {
	var (
		u  User
		id uuid.UUID
	)
	if err := row.Scan(&id, &u.Phone, &u.FirstName, &u.PINHash, &u.Balance, &u.CreatedAt); err != nil {
		return User{}, err
	}
	u.ID = id.String()
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// UserByPhone fetches a user by phone number.
func (s *PostgresStore) UserByPhone(ctx context.Context, phone string) (User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return u, nil
}

// CreateUser inserts a new user. The unique phone constraint decides races
// between concurrent registrations.
func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	id, err := uuid.Parse(user.ID)
	if err != nil {
		return User{}, err
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err = s.db.Exec(ctx, `INSERT INTO users (id, phone, first_name, pin_hash, balance, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, id, user.Phone, user.FirstName, user.PINHash, user.Balance, user.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrPhoneTaken
		}
		return User{}, err
	}
	return user, nil
}

// WithinTx runs fn inside a database transaction and commits when it returns nil.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if err := fn(&postgresTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type postgresTx struct {
	tx pgx.Tx
}

// LockUsers takes row locks in phone order so two transfers between the same
// pair of users cannot deadlock.
func (t *postgresTx) LockUsers(ctx context.Context, phones ...string) (map[string]User, error) {
	sorted := append([]string(nil), phones...)
	sort.Strings(sorted)

	rows, err := t.tx.Query(ctx, `SELECT `+userColumns+` FROM users WHERE phone = ANY($1) ORDER BY phone FOR UPDATE`, sorted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]User, len(phones))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[u.Phone] = u
	}
	return out, rows.Err()
}

func (t *postgresTx) CreateTransaction(ctx context.Context, txn Transaction) (Transaction, error) {
	if !ValidAmount(txn.Amount) {
		return Transaction{}, ErrInvalidAmount
	}
	receiverID, err := uuid.Parse(txn.ReceiverID)
	if err != nil {
		return Transaction{}, fmt.Errorf("receiver id: %w", err)
	}
	var senderID *uuid.UUID
	if txn.SenderID != "" {
		id, err := uuid.Parse(txn.SenderID)
		if err != nil {
			return Transaction{}, fmt.Errorf("sender id: %w", err)
		}
		senderID = &id
	}
	if txn.RequestID == "" {
		txn.RequestID = uuid.NewString()
	}
	if txn.Status == "" {
		txn.Status = StatusCompleted
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}

	id := uuid.New()
	_, err = t.tx.Exec(ctx, `INSERT INTO transactions (id, request_id, kind, sender_id, receiver_id, amount, description, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, txn.RequestID, txn.Kind, senderID, receiverID, txn.Amount, txn.Description, txn.Status, txn.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return Transaction{}, ErrDuplicateTransaction
		}
		return Transaction{}, err
	}
	txn.ID = id.String()
	return txn, nil
}

func (t *postgresTx) AdjustBalance(ctx context.Context, userID string, delta decimal.Decimal) (decimal.Decimal, error) {
	if !ValidAmount(delta.Abs()) {
		return decimal.Zero, ErrInvalidAmount
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return decimal.Zero, err
	}
	var balance decimal.Decimal
	err = t.tx.QueryRow(ctx, `UPDATE users SET balance = balance + $1
        WHERE id = $2 AND balance + $1 >= 0 RETURNING balance`, delta, id).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if qerr := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); qerr != nil {
				return decimal.Zero, qerr
			}
			if !exists {
				return decimal.Zero, ErrUserNotFound
			}
			return decimal.Zero, ErrInsufficientFunds
		}
		return decimal.Zero, err
	}
	return balance, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
