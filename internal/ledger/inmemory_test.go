package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

func mustUser(t *testing.T, s Store, phone string) User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), User{Phone: phone, FirstName: "user-" + phone})
	if err != nil {
		t.Fatalf("create user %s: %v", phone, err)
	}
	return u
}

func transfer(ctx context.Context, s Store, from, to, requestID string, amount decimal.Decimal) error {
	return s.WithinTx(ctx, func(tx Tx) error {
		users, err := tx.LockUsers(ctx, from, to)
		if err != nil {
			return err
		}
		sender, receiver := users[from], users[to]
		if _, err := tx.CreateTransaction(ctx, Transaction{
			RequestID:  requestID,
			Kind:       KindTransferFunds,
			SenderID:   sender.ID,
			ReceiverID: receiver.ID,
			Amount:     amount,
		}); err != nil {
			return err
		}
		if _, err := tx.AdjustBalance(ctx, sender.ID, amount.Neg()); err != nil {
			return err
		}
		_, err = tx.AdjustBalance(ctx, receiver.ID, amount)
		return err
	})
}

func balanceOf(t *testing.T, s Store, phone string) decimal.Decimal {
	t.Helper()
	u, err := s.UserByPhone(context.Background(), phone)
	if err != nil {
		t.Fatalf("lookup %s: %v", phone, err)
	}
	return u.Balance
}

func TestInMemoryStore_UniquePhone(t *testing.T) {
	s := NewInMemory()
	mustUser(t, s, "9000000001")
	if _, err := s.CreateUser(context.Background(), User{Phone: "9000000001"}); !errors.Is(err, ErrPhoneTaken) {
		t.Fatalf("expected ErrPhoneTaken, got %v", err)
	}
	if _, err := s.UserByPhone(context.Background(), "9000000009"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestInMemoryStore_TransferMaintainsBalance(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	mustUser(t, s, "a")
	mustUser(t, s, "b")
	SeedBalance(s, "a", decimal.NewFromInt(10_000))

	if err := transfer(ctx, s, "a", "b", "client-1", decimal.NewFromInt(1_500)); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}

	if got := balanceOf(t, s, "a"); !got.Equal(decimal.NewFromInt(8_500)) {
		t.Fatalf("expected from balance 8500, got %s", got)
	}
	if got := balanceOf(t, s, "b"); !got.Equal(decimal.NewFromInt(1_500)) {
		t.Fatalf("expected to balance 1500, got %s", got)
	}
	if n := len(Transactions(s)); n != 1 {
		t.Fatalf("expected one transaction, got %d", n)
	}
}

func TestInMemoryStore_FailedUnitLeavesNoTrace(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	mustUser(t, s, "a")
	mustUser(t, s, "b")
	SeedBalance(s, "a", decimal.NewFromInt(100))

	err := transfer(ctx, s, "a", "b", "too-much", decimal.NewFromInt(500))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if got := balanceOf(t, s, "a"); !got.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("sender balance changed: %s", got)
	}
	if got := balanceOf(t, s, "b"); !got.IsZero() {
		t.Fatalf("receiver balance changed: %s", got)
	}
	if n := len(Transactions(s)); n != 0 {
		t.Fatalf("expected no transactions, got %d", n)
	}
}

func TestInMemoryStore_DuplicateTransaction(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	mustUser(t, s, "a")
	mustUser(t, s, "b")
	SeedBalance(s, "a", decimal.NewFromInt(5_000))

	if err := transfer(ctx, s, "a", "b", "dup", decimal.NewFromInt(500)); err != nil {
		t.Fatalf("initial transfer failed: %v", err)
	}
	if err := transfer(ctx, s, "a", "b", "dup", decimal.NewFromInt(500)); !errors.Is(err, ErrDuplicateTransaction) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if got := balanceOf(t, s, "a"); !got.Equal(decimal.NewFromInt(4_500)) {
		t.Fatalf("duplicate was applied, balance %s", got)
	}
}

func TestInMemoryStore_ConcurrentTransfers(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	mustUser(t, s, "a")
	mustUser(t, s, "b")
	SeedBalance(s, "a", decimal.NewFromInt(100_000))

	const workers = 10
	amount := decimal.NewFromInt(500)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			from, to := "a", "b"
			if i%2 == 1 {
				from, to = "b", "a"
			}
			// b may not hold funds yet; insufficient funds is an acceptable outcome.
			if err := transfer(ctx, s, from, to, fmt.Sprintf("tx-%d", i), amount); err != nil && !errors.Is(err, ErrInsufficientFunds) {
				t.Errorf("transfer %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	total := balanceOf(t, s, "a").Add(balanceOf(t, s, "b"))
	if !total.Equal(decimal.NewFromInt(100_000)) {
		t.Fatalf("ledger not balanced after concurrency, total=%s", total)
	}
}

func TestInMemoryStore_RejectsNonPositiveAmount(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	u := mustUser(t, s, "a")
	err := s.WithinTx(ctx, func(tx Tx) error {
		_, err := tx.CreateTransaction(ctx, Transaction{Kind: KindLoadFunds, ReceiverID: u.ID, Amount: decimal.Zero})
		return err
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestInMemoryStore_RejectsAmountsThePostgresColumnCannotHold(t *testing.T) {
	s := NewInMemory()
	ctx := context.Background()
	u := mustUser(t, s, "a")
	SeedBalance(s, "a", decimal.NewFromInt(10))

	for _, raw := range []string{"1.00005", "0.00001", "1e13", "1e5000000"} {
		amount := decimal.RequireFromString(raw)
		err := s.WithinTx(ctx, func(tx Tx) error {
			_, err := tx.CreateTransaction(ctx, Transaction{Kind: KindLoadFunds, RequestID: raw, ReceiverID: u.ID, Amount: amount})
			return err
		})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%s: expected ErrInvalidAmount from CreateTransaction, got %v", raw, err)
		}
		err = s.WithinTx(ctx, func(tx Tx) error {
			_, err := tx.AdjustBalance(ctx, u.ID, amount.Neg())
			return err
		})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%s: expected ErrInvalidAmount from AdjustBalance, got %v", raw, err)
		}
	}
	if got := balanceOf(t, s, "a"); !got.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("rejected amounts must not move the balance, got %s", got)
	}
}

func TestValidAmount(t *testing.T) {
	cases := map[string]bool{
		"0.0001":             true,
		"1.50000":            true,
		"1000000000000":      true,
		"0":                  false,
		"-1":                 false,
		"0.00005":            false,
		"1000000000000.0001": false,
		"1e5000000":          false,
		"1e-5000000":         false,
	}
	for raw, want := range cases {
		if got := ValidAmount(decimal.RequireFromString(raw)); got != want {
			t.Fatalf("ValidAmount(%s) = %v, want %v", raw, got, want)
		}
	}
}
