package auth

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/wildlife-registry/internal/errors"
	"github.com/jrsteele09/wildlife-registry/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// unknownUserCredential is verified against when a username does not exist
// so both failure paths cost one digest.
var unknownUserCredential = HashCredential("unknown-user")

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	Principal *Principal `json:"principal"`
}

// AuthenticationService is the entry point used by request handlers for
// login, logout, verification and password changes.
type AuthenticationService struct {
	users          users.UserRepo
	sessions       *SessionManager
	verifier       *CredentialVerifier
	upgradeOnLogin bool
}

// AuthenticationServiceOption defines a function type to modify the AuthenticationService instance.
type AuthenticationServiceOption func(*AuthenticationService)

// WithCredentialVerifier replaces the default verifier (legacy plaintext allowed).
func WithCredentialVerifier(verifier *CredentialVerifier) AuthenticationServiceOption {
	return func(as *AuthenticationService) {
		if verifier != nil {
			as.verifier = verifier
		}
	}
}

// WithCredentialUpgrade controls whether a login that matched a legacy or
// bcrypt credential rewrites it as a tagged digest.
func WithCredentialUpgrade(enabled bool) AuthenticationServiceOption {
	return func(as *AuthenticationService) {
		as.upgradeOnLogin = enabled
	}
}

func NewAuthenticationService(userRepo users.UserRepo, sessionManager *SessionManager, options ...AuthenticationServiceOption) (*AuthenticationService, error) {
	if userRepo == nil {
		return nil, errors.New("[NewAuthenticationService] user repo is required")
	}
	if sessionManager == nil {
		return nil, errors.New("[NewAuthenticationService] session manager is required")
	}

	as := &AuthenticationService{
		users:          userRepo,
		sessions:       sessionManager,
		verifier:       NewCredentialVerifier(true),
		upgradeOnLogin: true,
	}
	for _, opt := range options {
		opt(as)
	}
	return as, nil
}

// Sessions exposes the session manager so the gate and reaper share it.
func (as *AuthenticationService) Sessions() *SessionManager {
	return as.sessions
}

// Login verifies username and password and starts a session. An unknown
// username and a wrong password produce the same error.
func (as *AuthenticationService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.Wrap(apperrors.ErrMalformedRequest, "[AuthenticationService.Login] username and password are required")
	}

	user, err := as.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, errors.Wrap(err, "[AuthenticationService.Login] users.GetByUsername")
		}
		as.verifier.Verify(password, unknownUserCredential)
		return nil, errors.Wrap(apperrors.ErrInvalidCredentials, "[AuthenticationService.Login]")
	}

	if !as.verifier.Verify(password, user.Credential) {
		return nil, errors.Wrap(apperrors.ErrInvalidCredentials, "[AuthenticationService.Login]")
	}

	if !user.Active {
		return nil, errors.Wrapf(apperrors.ErrInactiveIdentity, "[AuthenticationService.Login] identity %d", user.ID)
	}

	if as.upgradeOnLogin && NeedsUpgrade(user.Credential) {
		as.upgradeCredential(ctx, user, password)
	}

	session, err := as.sessions.Create(ctx, user)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticationService.Login] sessions.Create")
	}

	log.Info().Int64("identity_id", user.ID).Str("username", user.Username).Msg("Login succeeded")
	return &LoginResult{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Principal: PrincipalFromUser(user),
	}, nil
}

func (as *AuthenticationService) upgradeCredential(ctx context.Context, user *users.User, password string) {
	ok, err := as.users.PersistCredential(ctx, user.ID, HashCredential(password))
	if err != nil {
		log.Err(err).Int64("identity_id", user.ID).Msg("Credential upgrade failed")
		return
	}
	if ok {
		log.Info().Int64("identity_id", user.ID).Msg("Credential upgraded to tagged digest")
	}
}

// Logout ends the session for token. A token that is already gone is not an error.
func (as *AuthenticationService) Logout(ctx context.Context, token string) error {
	if err := as.sessions.Invalidate(ctx, token); err != nil {
		return errors.Wrap(err, "[AuthenticationService.Logout]")
	}
	return nil
}

// Verify returns the principal behind token and renews its session.
func (as *AuthenticationService) Verify(ctx context.Context, token string) (*Principal, error) {
	user, err := as.sessions.Validate(ctx, token)
	if err != nil {
		return nil, errors.Wrap(err, "[AuthenticationService.Verify]")
	}
	return PrincipalFromUser(user), nil
}

// ChangePassword replaces the credential of identityID when current
// matches the stored one and ends every session the identity holds. A
// wrong current password returns false and changes nothing. Once the new
// credential is stored the result is true, even if some sessions could not be
// ended; that failure is still returned as the error.
func (as *AuthenticationService) ChangePassword(ctx context.Context, identityID int64, current, newPassword string) (bool, error) {
	if newPassword == "" {
		return false, errors.Wrap(apperrors.ErrMalformedRequest, "[AuthenticationService.ChangePassword] new password is required")
	}

	user, err := as.users.GetByID(ctx, identityID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, errors.Wrap(err, "[AuthenticationService.ChangePassword] users.GetByID")
	}

	if !as.verifier.Verify(current, user.Credential) {
		return false, nil
	}

	persisted, err := as.users.PersistCredential(ctx, identityID, HashCredential(newPassword))
	if err != nil {
		return false, errors.Wrap(err, "[AuthenticationService.ChangePassword] users.PersistCredential")
	}
	if !persisted {
		return false, nil
	}

	removed, err := as.sessions.InvalidateAll(ctx, identityID)
	if err != nil {
		return true, errors.Wrap(err, "[AuthenticationService.ChangePassword] sessions.InvalidateAll")
	}

	log.Info().Int64("identity_id", identityID).Int("sessions_removed", removed).Msg("Password changed")
	return true, nil
}
