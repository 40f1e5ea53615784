package sessionstore

import (
	"context"
	"crypto/sha256"
	"sync"
	"time"
)

// WteTracker records Wallet-unit Token Exchange (WTE) JWTs that have already been
// spent, so that issuance can reject replay of a single-use WTE. Implementations must
// be safe for concurrent use.
type WteTracker interface {
	// Track records the WTE identified by digest with the given expiry, returning
	// true if it was not previously tracked (i.e. this use is accepted) and false
	// if digest had already been tracked (i.e. this is a replay).
	Track(ctx context.Context, digest [sha256.Size]byte, expiry time.Time) (bool, error)
	// Cleanup removes tracked entries whose expiry has passed, returning the
	// number removed.
	Cleanup(ctx context.Context) (int, error)
}

// HashWte computes the tracking digest for a serialized WTE JWT.
func HashWte(serialized string) [sha256.Size]byte {
	return sha256.Sum256([]byte(serialized))
}

// MemoryWteTracker is an in-memory WteTracker reference implementation.
type MemoryWteTracker struct {
	mu      sync.Mutex
	entries map[[sha256.Size]byte]time.Time
}

// NewMemoryWteTracker creates an empty MemoryWteTracker.
func NewMemoryWteTracker() *MemoryWteTracker {
	return &MemoryWteTracker{entries: make(map[[sha256.Size]byte]time.Time)}
}

func (t *MemoryWteTracker) Track(_ context.Context, digest [sha256.Size]byte, expiry time.Time) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, seen := t.entries[digest]; seen {
		return false, nil
	}
	t.entries[digest] = expiry
	return true, nil
}

func (t *MemoryWteTracker) Cleanup(_ context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	removed := 0
	for digest, expiry := range t.entries {
		if now.After(expiry) {
			delete(t.entries, digest)
			removed++
		}
	}
	return removed, nil
}

// StartCleanupTask runs Cleanup on interval until ctx is cancelled.
func (t *MemoryWteTracker) StartCleanupTask(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = t.Cleanup(ctx)
		}
	}
}
