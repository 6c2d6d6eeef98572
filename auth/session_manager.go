package auth

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/wildlife-registry/internal/errors"
	"github.com/jrsteele09/wildlife-registry/internal/utils"
	"github.com/jrsteele09/wildlife-registry/sessions"
	"github.com/jrsteele09/wildlife-registry/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSessionTTL = 30 * 24 * time.Hour
	tokenLength       = 32 // 32 bytes = 256 bits
	tokenAttempts     = 3
)

// IdentityFinder resolves an identity by id; users.UserRepo satisfies it.
type IdentityFinder interface {
	GetByID(ctx context.Context, id int64) (*users.User, error)
}

// SessionManager creates, validates and invalidates sessions. Every
// validation re-resolves the owning identity and slides the expiry forward.
type SessionManager struct {
	store      sessions.Store
	identities IdentityFinder
	ttl        time.Duration
	nowTime    func() time.Time
	newToken   func() (string, error)
}

// SessionManagerOption defines a function type to modify the SessionManager instance.
type SessionManagerOption func(*SessionManager)

// WithSessionTTL sets the sliding session lifetime
func WithSessionTTL(ttl time.Duration) SessionManagerOption {
	return func(sm *SessionManager) {
		if ttl > 0 {
			sm.ttl = ttl
		}
	}
}

// WithSessionClock sets the now time function (primarily for testing)
func WithSessionClock(nowFunc func() time.Time) SessionManagerOption {
	return func(sm *SessionManager) {
		sm.nowTime = nowFunc
	}
}

// WithTokenGenerator replaces the random token source (primarily for testing)
func WithTokenGenerator(gen func() (string, error)) SessionManagerOption {
	return func(sm *SessionManager) {
		sm.newToken = gen
	}
}

func NewSessionManager(store sessions.Store, identities IdentityFinder, options ...SessionManagerOption) (*SessionManager, error) {
	if store == nil {
		return nil, errors.New("[NewSessionManager] session store is required")
	}
	if identities == nil {
		return nil, errors.New("[NewSessionManager] identity finder is required")
	}

	sm := &SessionManager{
		store:      store,
		identities: identities,
		ttl:        DefaultSessionTTL,
		nowTime:    time.Now,
		newToken:   generateToken,
	}
	for _, opt := range options {
		opt(sm)
	}
	return sm, nil
}

func generateToken() (string, error) {
	return utils.RandomString(tokenLength)
}

// TTL is the lifetime granted on creation and on every successful validation.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// Create starts a session for user and returns it.
func (sm *SessionManager) Create(ctx context.Context, user *users.User) (*sessions.Session, error) {
	if user == nil {
		return nil, errors.New("[SessionManager.Create] user is nil")
	}

	token, err := sm.uniqueToken(ctx)
	if err != nil {
		return nil, err
	}

	now := sm.nowTime()
	s := sessions.Session{
		Token:        token,
		IdentityID:   user.ID,
		Username:     user.Username,
		CreatedAt:    now,
		ExpiresAt:    now.Add(sm.ttl),
		LastActivity: now,
	}
	if err := sm.store.Put(ctx, s); err != nil {
		return nil, errors.Wrap(err, "[SessionManager.Create] store.Put")
	}
	return &s, nil
}

func (sm *SessionManager) uniqueToken(ctx context.Context) (string, error) {
	for i := 0; i < tokenAttempts; i++ {
		token, err := sm.newToken()
		if err != nil {
			return "", errors.Wrap(err, "[SessionManager.Create] token generation")
		}
		_, err = sm.store.Get(ctx, token)
		if errors.Is(err, sessions.ErrSessionNotFound) {
			return token, nil
		}
		if err != nil {
			return "", errors.Wrap(err, "[SessionManager.Create] store.Get")
		}
	}
	return "", errors.New("[SessionManager.Create] could not generate a unique token")
}

// Validate resolves the identity owning token and renews the session.
// Every failure is reported as ErrInvalidSession; lookups fail closed.
func (sm *SessionManager) Validate(ctx context.Context, token string) (*users.User, error) {
	if token == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidSession, "[SessionManager.Validate] empty token")
	}

	s, err := sm.store.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, sessions.ErrSessionNotFound) {
			log.Err(err).Msg("Session lookup failed")
		}
		return nil, errors.Wrap(apperrors.ErrInvalidSession, "[SessionManager.Validate] unknown session")
	}

	if s.Expired(sm.nowTime()) {
		sm.evict(ctx, token)
		return nil, errors.Wrap(apperrors.ErrInvalidSession, "[SessionManager.Validate] expired")
	}

	user, err := sm.identities.GetByID(ctx, s.IdentityID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Err(err).Int64("identity_id", s.IdentityID).Msg("Identity lookup failed during validation")
		}
		sm.evict(ctx, token)
		return nil, errors.Wrap(apperrors.ErrInvalidSession, "[SessionManager.Validate] identity unavailable")
	}
	if !user.Active {
		sm.evict(ctx, token)
		return nil, errors.Wrap(apperrors.ErrInvalidSession, "[SessionManager.Validate] identity inactive")
	}

	now := sm.nowTime()
	renewed, err := sm.store.Touch(ctx, token, now.Add(sm.ttl), now)
	if err != nil {
		log.Err(err).Msg("Session renewal failed")
		return nil, errors.Wrap(apperrors.ErrInvalidSession, "[SessionManager.Validate] renewal failed")
	}
	if !renewed {
		return nil, errors.Wrap(apperrors.ErrInvalidSession, "[SessionManager.Validate] invalidated concurrently")
	}
	return user, nil
}

// Invalidate removes a single session; unknown tokens are ignored.
func (sm *SessionManager) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return errors.Wrap(sm.store.Remove(ctx, token), "[SessionManager.Invalidate]")
}

// InvalidateAll removes every session owned by identityID and returns how
// many were removed. A failed removal does not stop the others; the returned
// error then reports how many failed.
func (sm *SessionManager) InvalidateAll(ctx context.Context, identityID int64) (int, error) {
	tokens, err := sm.store.TokensFor(ctx, identityID)
	if err != nil {
		return 0, errors.Wrap(err, "[SessionManager.InvalidateAll] store.TokensFor")
	}

	removed := 0
	var lastErr error
	for _, token := range tokens {
		if err := sm.store.Remove(ctx, token); err != nil {
			lastErr = err
			continue
		}
		removed++
	}
	if lastErr != nil {
		return removed, errors.Wrapf(lastErr, "[SessionManager.InvalidateAll] %d of %d removals failed", len(tokens)-removed, len(tokens))
	}
	return removed, nil
}

func (sm *SessionManager) evict(ctx context.Context, token string) {
	if err := sm.store.Remove(ctx, token); err != nil {
		log.Err(err).Msg("Failed to evict session")
	}
}
