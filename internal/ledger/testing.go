package ledger

import "github.com/shopspring/decimal"

// SeedBalance is a test helper that sets the balance of the user owning phone
// when using the in-memory store.
func SeedBalance(s Store, phone string, amount decimal.Decimal) {
	if mem, ok := s.(*inMemoryStore); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		if id, ok := mem.phones[phone]; ok {
			u := mem.users[id]
			u.Balance = amount
			mem.users[id] = u
		}
	}
}

// Transactions returns every recorded transaction of the in-memory store.
func Transactions(s Store) []Transaction {
	mem, ok := s.(*inMemoryStore)
	if !ok {
		return nil
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	out := make([]Transaction, 0, len(mem.transactions))
	for _, t := range mem.transactions {
		out = append(out, t)
	}
	return out
}

// UserCount returns the number of users held by the in-memory store.
func UserCount(s Store) int {
	mem, ok := s.(*inMemoryStore)
	if !ok {
		return 0
	}
	mem.mu.Lock()
	defer mem.mu.Unlock()
	return len(mem.users)
}
