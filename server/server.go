package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/wildlife-registry/auth"
	"github.com/jrsteele09/wildlife-registry/internal/config"
	"github.com/jrsteele09/wildlife-registry/sessions"
	"github.com/jrsteele09/wildlife-registry/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env     string // Environment (e.g., "DEV", "PROD")
	mux     *http.ServeMux
	handler http.HandlerFunc
	routes  []string
	config  config.Config
	auth    *auth.AuthenticationService
	gate    *auth.Gate
	store   sessions.Store
	users   users.UserRepo
}

// ServerOption defines a function type to modify the Server instance.
type ServerOption func(*serverOptions)

type serverOptions struct {
	sessionOptions []auth.SessionManagerOption
}

// WithSessionOptions passes options through to the session manager (clock, token source).
func WithSessionOptions(options ...auth.SessionManagerOption) ServerOption {
	return func(o *serverOptions) {
		o.sessionOptions = append(o.sessionOptions, options...)
	}
}

func New(config config.Config, userRepo users.UserRepo, store sessions.Store, options ...ServerOption) (*Server, error) {
	opts := serverOptions{}
	for _, opt := range options {
		opt(&opts)
	}

	sessionOptions := append([]auth.SessionManagerOption{auth.WithSessionTTL(config.GetSessionTTL())}, opts.sessionOptions...)
	sessionManager, err := auth.NewSessionManager(store, userRepo, sessionOptions...)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to create session manager")
	}

	authService, err := auth.NewAuthenticationService(userRepo, sessionManager,
		auth.WithCredentialVerifier(auth.NewCredentialVerifier(config.GetAllowLegacyCredentials())),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to create authentication service")
	}

	s := &Server{
		env:    config.GetEnv(),
		mux:    http.NewServeMux(),
		config: config,
		auth:   authService,
		gate:   auth.NewGate(auth.NewRouteTable(config.GetRouteRules()), sessionManager, users.RoleType(config.GetAdminRole())),
		store:  store,
		users:  userRepo,
	}

	if _, err := s.InitialiseSystem(context.Background()); err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to initialise the system")
	}

	s.initRoutes()
	s.logRoutes()

	// Authorization wraps the whole mux so unregistered paths are gated too.
	s.handler = ChainMiddleware(s.mux.ServeHTTP,
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.FrameSecurityMiddleware,
		s.CorsMiddleware,
		s.AuthorizationMiddleware,
	)
	return s, nil
}

// Sessions returns the session manager shared by the handlers and the gate.
func (s *Server) Sessions() *auth.SessionManager {
	return s.auth.Sessions()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1], s.gate.Classify(parts[1]))
		} else {
			logRoute("", parts[0], s.gate.Classify(parts[0]))
		}
	}
}

func logRoute(method, path string, class auth.RouteClass) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Debug().Str("class", class.String()).Msgf("[%s] %s", color+paddedMethod+ResetColor, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
