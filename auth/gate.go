package auth

import (
	"context"
	"path"
	"strings"

	apperrors "github.com/jrsteele09/wildlife-registry/internal/errors"
	"github.com/jrsteele09/wildlife-registry/users"
	"github.com/pkg/errors"
)

// RouteClass is the protection tier of a route. The zero value is Protected
// so that anything left unclassified requires a session.
type RouteClass int

const (
	RouteClassProtected RouteClass = iota
	RouteClassPublic
	RouteClassAdminOnly
)

func (c RouteClass) String() string {
	switch c {
	case RouteClassPublic:
		return "public"
	case RouteClassAdminOnly:
		return "admin_only"
	default:
		return "protected"
	}
}

// RouteRule maps a path prefix to a class.
type RouteRule struct {
	Prefix string
	Class  RouteClass
}

// RouteTable classifies request paths. Public rules are consulted first,
// then the remaining rules in declaration order; the first match wins.
type RouteTable struct {
	rules []RouteRule
}

func NewRouteTable(rules []RouteRule) *RouteTable {
	ordered := make([]RouteRule, 0, len(rules))
	for _, r := range rules {
		if r.Class == RouteClassPublic {
			ordered = append(ordered, r)
		}
	}
	for _, r := range rules {
		if r.Class != RouteClassPublic {
			ordered = append(ordered, r)
		}
	}
	return &RouteTable{rules: ordered}
}

// Classify returns the class of the first matching rule, or Protected.
func (rt *RouteTable) Classify(requestPath string) RouteClass {
	p := cleanPath(requestPath)
	for _, r := range rt.rules {
		if strings.HasPrefix(p, r.Prefix) {
			return r.Class
		}
	}
	return RouteClassProtected
}

// cleanPath resolves dot segments so "/health/../api/admin" cannot ride a
// public prefix. A trailing slash is kept.
func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	cleaned := path.Clean(p)
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

// SessionValidator is the part of SessionManager the gate depends on.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*users.User, error)
}

// Gate decides whether a request may reach its handler.
type Gate struct {
	routes    *RouteTable
	sessions  SessionValidator
	adminRole users.RoleType
}

func NewGate(routes *RouteTable, validator SessionValidator, adminRole users.RoleType) *Gate {
	if adminRole == "" {
		adminRole = users.RoleAdmin
	}
	return &Gate{
		routes:    routes,
		sessions:  validator,
		adminRole: adminRole,
	}
}

func (g *Gate) Classify(requestPath string) RouteClass {
	return g.routes.Classify(requestPath)
}

// Authorize returns the principal for token when the route requires one.
// Public routes return a nil principal and never touch the session store.
func (g *Gate) Authorize(ctx context.Context, requestPath string, token string) (*Principal, error) {
	class := g.routes.Classify(requestPath)
	if class == RouteClassPublic {
		return nil, nil
	}

	if token == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidSession, "[Gate.Authorize] no session token")
	}

	user, err := g.sessions.Validate(ctx, token)
	if err != nil {
		return nil, errors.Wrap(apperrors.ErrInvalidSession, "[Gate.Authorize] session rejected")
	}

	principal := PrincipalFromUser(user)
	if class == RouteClassAdminOnly && !user.HasRole(g.adminRole) {
		return nil, errors.Wrapf(apperrors.ErrInsufficientRole, "[Gate.Authorize] %s requires %s", requestPath, g.adminRole)
	}
	return principal, nil
}
