package idempotency

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInProgress is returned when another delivery of the same request is
// still being processed.
var ErrInProgress = errors.New("duplicate request currently processing")

// PendingTTL bounds how long an in-progress reservation blocks retries when
// the process dies before Complete or Release.
const PendingTTL = 2 * time.Minute

func pendingTTL(ttl time.Duration) time.Duration {
	if ttl > 0 && ttl < PendingTTL {
		return ttl
	}
	return PendingTTL
}

// Reservation is the outcome of Reserve. When Replay is true the request was
// already completed and Stored holds the recorded result.
type Reservation struct {
	Replay bool
	Stored []byte
}

// Guard deduplicates requests keyed by action and request id.
type Guard interface {
	Reserve(ctx context.Context, key string) (Reservation, error)
	Complete(ctx context.Context, key string, result []byte) error
	Release(ctx context.Context, key string) error
}

type memoryEntry struct {
	done    bool
	result  []byte
	expires time.Time
}

// MemoryGuard is a process-local Guard for tests and redis-less development.
type MemoryGuard struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryGuard builds a MemoryGuard whose completed entries live for ttl.
func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (g *MemoryGuard) Reserve(_ context.Context, key string) (Reservation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if e, ok := g.entries[key]; ok && now.Before(e.expires) {
		if !e.done {
			return Reservation{}, ErrInProgress
		}
		return Reservation{Replay: true, Stored: append([]byte(nil), e.result...)}, nil
	}
	g.entries[key] = memoryEntry{expires: now.Add(pendingTTL(g.ttl))}
	return Reservation{}, nil
}

func (g *MemoryGuard) Complete(_ context.Context, key string, result []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[key] = memoryEntry{done: true, result: append([]byte(nil), result...), expires: g.now().Add(g.ttl)}
	return nil
}

func (g *MemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, key)
	return nil
}
