package sessions

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned by Store.Get when no session has the token.
var ErrSessionNotFound = errors.New("session not found")

// Store is a concurrent token to session mapping. It holds no business
// logic: expiry is decided by callers, and ScanExpired never removes.
type Store interface {
	// Put inserts or replaces the session stored under s.Token
	Put(ctx context.Context, s Session) error

	// Get returns a copy of the session, or ErrSessionNotFound
	Get(ctx context.Context, token string) (*Session, error)

	// Remove deletes the session; removing an absent token is not an error
	Remove(ctx context.Context, token string) error

	// Touch moves the expiry and activity time of an existing session and
	// reports false, without writing, when the token is no longer stored
	Touch(ctx context.Context, token string, expiresAt, lastActivity time.Time) (bool, error)

	// ScanExpired lists tokens whose expiry is at or before now
	ScanExpired(ctx context.Context, now time.Time) ([]string, error)

	// TokensFor lists the tokens owned by an identity
	TokensFor(ctx context.Context, identityID int64) ([]string, error)

	// Count returns the number of stored sessions, expired or not
	Count(ctx context.Context) (int, error)
}
