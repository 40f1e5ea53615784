// Package sessionstore provides a generic, expiring session store for stateful
// protocol flows (OpenID4VCI issuance, OpenID4VP disclosure) that must survive across
// independent HTTP requests without trusting the client to carry state.
package sessionstore

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"time"
)

// Progress is the lifecycle state of a session's protocol data.
type Progress int

const (
	// Active sessions are still awaiting further protocol messages.
	Active Progress = iota
	// Finished sessions have reached a terminal outcome.
	Finished
)

// HasProgress is implemented by session data to report whether its protocol flow has
// concluded, and if so whether it succeeded.
type HasProgress interface {
	// Progress reports the session's lifecycle state.
	Progress() Progress
	// HasSucceeded reports the terminal outcome. Only meaningful when Progress
	// returns Finished.
	HasSucceeded() bool
}

// Expirable is implemented by session data that can independently decide it has
// expired (e.g. because an embedded deadline has passed), in addition to the
// store's own inactivity-based expiration.
type Expirable interface {
	HasExpired() bool
}

// SessionToken is an opaque, unguessable session identifier handed to the client.
type SessionToken string

// NewSessionToken generates a random 32-character token, matching the entropy of the
// original implementation's SessionToken::new_random.
func NewSessionToken() SessionToken {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("sessionstore: reading random bytes: %v", err))
	}
	return SessionToken(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf))
}

// SessionState wraps session data T with the token it is stored under and the time it
// was last written, which drives inactivity-based expiration.
type SessionState[T any] struct {
	Data       T
	Token      SessionToken
	LastActive time.Time
}

// NewSessionState creates session state for data under a freshly generated token.
func NewSessionState[T any](data T) SessionState[T] {
	return SessionState[T]{Data: data, Token: NewSessionToken(), LastActive: time.Now()}
}

var (
	// ErrDuplicateToken is returned by Write when isNew is true but a session
	// already exists under the given token.
	ErrDuplicateToken = errors.New("sessionstore: duplicate session token")
	// ErrNotFound is returned by Get when no session exists under the given token.
	ErrNotFound = errors.New("sessionstore: session not found")
)

// SessionStore persists SessionState[T] keyed by SessionToken. Implementations must be
// safe for concurrent use.
type SessionStore[T HasProgress] interface {
	// Get retrieves the session stored under token.
	Get(ctx context.Context, token SessionToken) (*SessionState[T], error)
	// Write persists state. isNew must be true for a session's first write and
	// false thereafter; implementations return ErrDuplicateToken if isNew is true
	// and a session already exists under state.Token.
	Write(ctx context.Context, state SessionState[T], isNew bool) error
	// Cleanup removes or expires sessions per timeouts, and returns the number of
	// sessions it removed.
	Cleanup(ctx context.Context, timeouts Timeouts) (int, error)
}

// Timeouts configures SessionStore.Cleanup's three passes. Defaults mirror the
// original implementation's SessionStoreTimeouts::default(): a session that has gone
// quiet is expired after 30 minutes, a successfully finished session is deleted after
// 5 minutes, and a failed or expired session is deleted after 4 hours (kept longer so
// operators can investigate failures).
type Timeouts struct {
	Expiration         time.Duration
	SuccessfulDeletion time.Duration
	FailedDeletion     time.Duration
}

// DefaultTimeouts returns the original implementation's default timeout values.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Expiration:         30 * time.Minute,
		SuccessfulDeletion: 5 * time.Minute,
		FailedDeletion:     4 * time.Hour,
	}
}
