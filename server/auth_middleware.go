package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/wildlife-registry/auth"
)

// AuthorizationMiddleware classifies the request path and, for protected
// and admin-only routes, binds the resolved principal to the request
// context. Failures are answered here and never reach the handler.
//
// The session cookie is tried first. When it names a session that is no
// longer valid, the cookie is cleared and a differing Bearer token, if any,
// is tried instead.
func (s *Server) AuthorizationMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, bearer := s.cookieToken(r), bearerToken(r)

		token, fromCookie := cookie, cookie != ""
		if !fromCookie {
			token = bearer
		}

		principal, err := s.gate.Authorize(r.Context(), r.URL.Path, token)
		if err != nil && fromCookie && auth.OutcomeOf(err) == auth.OutcomeUnauthorized {
			s.ClearSessionCookie(w, r)
			if bearer != "" && bearer != cookie {
				token, fromCookie = bearer, false
				principal, err = s.gate.Authorize(r.Context(), r.URL.Path, token)
			}
		}
		if err != nil {
			writeError(w, r, err)
			return
		}

		if principal != nil {
			if fromCookie {
				// The session was just renewed; keep the cookie lifetime in step.
				s.SetSessionCookie(w, r, token)
			}
			r = r.WithContext(auth.WithPrincipal(r.Context(), principal))
		}
		next(w, r)
	}
}

// requestTokens returns the distinct non-empty tokens the request carries,
// cookie first.
func (s *Server) requestTokens(r *http.Request) []string {
	var tokens []string
	if token := s.cookieToken(r); token != "" {
		tokens = append(tokens, token)
	}
	if token := bearerToken(r); token != "" && (len(tokens) == 0 || tokens[0] != token) {
		tokens = append(tokens, token)
	}
	return tokens
}

func (s *Server) cookieToken(r *http.Request) string {
	cookie, err := r.Cookie(s.config.GetSessionCookieName())
	if err != nil {
		return ""
	}
	return cookie.Value
}

// bearerToken reads an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
