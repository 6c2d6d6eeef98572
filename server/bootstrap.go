package server

import (
	"context"

	"github.com/jrsteele09/wildlife-registry/auth"
	apperrors "github.com/jrsteele09/wildlife-registry/internal/errors"
	"github.com/jrsteele09/wildlife-registry/internal/utils"
	"github.com/jrsteele09/wildlife-registry/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const generatedPasswordLength = 18

// InitialiseSystem makes sure the administrator identity exists. When it
// has to be created without ADMIN_PASSWORD set, a password is generated,
// logged once and returned.
func (s *Server) InitialiseSystem(ctx context.Context) (generatedPassword string, err error) {
	username := s.config.GetAdminUsername()

	existing, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		if !existing.HasRole(users.RoleType(s.config.GetAdminRole())) {
			log.Warn().Str("username", username).Msg("Bootstrap: administrator account exists without the admin role")
		}
		return "", nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return "", errors.Wrap(err, "[Server.InitialiseSystem] users.GetByUsername")
	}

	password := s.config.GetAdminPassword()
	if password == "" {
		if password, err = utils.RandomString(generatedPasswordLength); err != nil {
			return "", errors.Wrap(err, "[Server.InitialiseSystem] generate password")
		}
		generatedPassword = password
	}

	admin := &users.User{
		Username:   username,
		Role:       users.RoleType(s.config.GetAdminRole()),
		Active:     true,
		Credential: auth.HashCredential(password),
	}
	if err := s.users.Upsert(ctx, admin); err != nil {
		return "", errors.Wrap(err, "[Server.InitialiseSystem] users.Upsert")
	}

	if generatedPassword != "" {
		log.Warn().
			Int64("id", admin.ID).
			Str("username", username).
			Str("password", generatedPassword).
			Msg("Bootstrap: administrator created with a generated password; save it, it will not be shown again")
		return generatedPassword, nil
	}
	log.Info().Int64("id", admin.ID).Str("username", username).Msg("Bootstrap: administrator created")
	return "", nil
}
