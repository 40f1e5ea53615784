package sessionstore

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore is an in-memory SessionStore[T] reference implementation, suitable for a
// single-process deployment or for tests. It never evicts a session on its own; entries
// are only ever removed by an explicit Cleanup call, so that Cleanup's own
// finished/failed/expired bookkeeping stays authoritative.
type MemoryStore[T HasProgress] struct {
	cache *ttlcache.Cache[SessionToken, SessionState[T]]
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore[T HasProgress]() *MemoryStore[T] {
	cache := ttlcache.New[SessionToken, SessionState[T]](
		ttlcache.WithDisableTouchOnHit[SessionToken, SessionState[T]](),
	)
	return &MemoryStore[T]{cache: cache}
}

func (s *MemoryStore[T]) Get(_ context.Context, token SessionToken) (*SessionState[T], error) {
	item := s.cache.Get(token)
	if item == nil {
		return nil, ErrNotFound
	}
	state := item.Value()
	return &state, nil
}

func (s *MemoryStore[T]) Write(_ context.Context, state SessionState[T], isNew bool) error {
	if isNew {
		if existing := s.cache.Get(state.Token); existing != nil {
			return ErrDuplicateToken
		}
	}
	s.cache.Set(state.Token, state, ttlcache.NoTTL)
	return nil
}

// Cleanup implements the three-pass algorithm: first, successfully finished sessions
// older than SuccessfulDeletion are deleted outright; second, failed or data-expired
// sessions older than FailedDeletion are deleted outright; third, active sessions that
// have gone quiet for longer than Expiration are marked Finished (unsuccessful) in
// place by having their data report HasExpired, and their LastActive is reset so the
// second pass eventually sweeps them up. A caller's T.Progress/T.HasSucceeded must
// reflect state set by the caller when the expiration is first observed; this store
// only drives the timing, not the state transition itself, mirroring server_state.rs's
// division of labor between the generic store and the protocol-specific session data.
func (s *MemoryStore[T]) Cleanup(_ context.Context, timeouts Timeouts) (int, error) {
	now := time.Now()
	removed := 0

	var toDelete []SessionToken
	for token, item := range s.cache.Items() {
		state := item.Value()

		switch state.Data.Progress() {
		case Finished:
			age := now.Sub(state.LastActive)
			if state.Data.HasSucceeded() && age > timeouts.SuccessfulDeletion {
				toDelete = append(toDelete, token)
				continue
			}
			if !state.Data.HasSucceeded() && age > timeouts.FailedDeletion {
				toDelete = append(toDelete, token)
				continue
			}
		case Active:
			if expirable, ok := any(state.Data).(Expirable); ok && expirable.HasExpired() {
				if now.Sub(state.LastActive) > timeouts.FailedDeletion {
					toDelete = append(toDelete, token)
				}
				continue
			}
			if now.Sub(state.LastActive) > timeouts.Expiration {
				// The session has gone quiet past the expiration window but its
				// data has not yet been transitioned to Finished by the caller;
				// touch it so repeated cleanup runs do not re-evaluate it every
				// tick, and leave deletion to the FailedDeletion pass above once
				// the caller observes expiry and flips Progress on next access.
				state.LastActive = now
				s.cache.Set(token, state, ttlcache.NoTTL)
			}
		}
	}

	for _, token := range toDelete {
		s.cache.Delete(token)
		removed++
	}
	return removed, nil
}

// StartCleanupTask runs Cleanup on interval until ctx is cancelled.
func (s *MemoryStore[T]) StartCleanupTask(ctx context.Context, timeouts Timeouts, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Cleanup(ctx, timeouts)
		}
	}
}
