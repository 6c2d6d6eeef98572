package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jrsteele09/wildlife-registry/auth"
	apperrors "github.com/jrsteele09/wildlife-registry/internal/errors"
	"github.com/jrsteele09/wildlife-registry/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	maxBodyBytes     = 1 << 16
	defaultPageLimit = 50
	maxPageLimit     = 500
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return errors.Wrapf(apperrors.ErrMalformedRequest, "[decodeJSON] %v", err)
	}
	return nil
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, map[string]string{
			"app": s.config.GetAppName(),
			"env": s.env,
		})
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		result, err := s.auth.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, r, err)
			return
		}

		s.SetSessionCookie(w, r, result.Token)
		writeOK(w, result)
	}
}

// LogoutHandler is public so that a client holding an expired token can still clear it.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, token := range s.requestTokens(r) {
			if err := s.auth.Logout(r.Context(), token); err != nil {
				writeError(w, r, err)
				return
			}
		}
		s.ClearSessionCookie(w, r)
		writeOK(w, nil)
	}
}

func (s *Server) VerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, r, apperrors.ErrInvalidSession)
			return
		}
		writeOK(w, principal)
	}
}

func (s *Server) ChangePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			writeError(w, r, apperrors.ErrInvalidSession)
			return
		}

		var req changePasswordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}

		changed, err := s.auth.ChangePassword(r.Context(), principal.ID, req.CurrentPassword, req.NewPassword)
		if err != nil && !changed {
			writeError(w, r, err)
			return
		}
		if err != nil {
			// The new password is already stored; report the change and leave
			// any surviving sessions to expire.
			zerolog.Ctx(r.Context()).Warn().Err(err).Int64("identity_id", principal.ID).Msg("Password changed but not every session ended")
		}
		if !changed {
			writeError(w, r, errors.Wrap(apperrors.ErrInvalidCredentials, "[ChangePasswordHandler] current password rejected"))
			return
		}

		// Every session of the identity, including this one, has ended.
		s.ClearSessionCookie(w, r)
		writeOK(w, map[string]bool{"changed": true})
	}
}

func (s *Server) AdminSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := s.store.Count(r.Context())
		if err != nil {
			writeError(w, r, errors.Wrap(err, "[AdminSessionsHandler] store.Count"))
			return
		}
		writeOK(w, map[string]int{"sessions": count})
	}
}

func (s *Server) AdminUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, err := queryInt(r, "offset", 0)
		if err != nil || offset < 0 {
			writeError(w, r, errors.Wrap(apperrors.ErrMalformedRequest, "[AdminUsersHandler] offset"))
			return
		}
		limit, err := queryInt(r, "limit", defaultPageLimit)
		if err != nil || limit < 1 || limit > maxPageLimit {
			writeError(w, r, errors.Wrap(apperrors.ErrMalformedRequest, "[AdminUsersHandler] limit"))
			return
		}

		userList, err := s.users.List(r.Context(), offset, limit)
		if err != nil {
			writeError(w, r, errors.Wrap(err, "[AdminUsersHandler] users.List"))
			return
		}
		if userList == nil {
			userList = []*users.User{}
		}
		writeOK(w, userList)
	}
}

// NotImplementedHandler answers registry routes whose handlers live outside this service.
func (s *Server) NotImplementedHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResult(w, http.StatusNotImplemented, apiResult{Status: statusError, Error: "not implemented"})
	}
}

func queryInt(r *http.Request, name string, defaultValue int) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return defaultValue, nil
	}
	return strconv.Atoi(value)
}
