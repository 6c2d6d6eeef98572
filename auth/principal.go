package auth

import (
	"context"

	"github.com/jrsteele09/wildlife-registry/users"
)

// Principal is the request-scoped, read-only view of an authenticated identity.
type Principal struct {
	ID       int64          `json:"id"`
	Username string         `json:"username"`
	Email    string         `json:"email,omitempty"`
	Role     users.RoleType `json:"role"`
}

func PrincipalFromUser(u *users.User) *Principal {
	if u == nil {
		return nil
	}
	return &Principal{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
}

type principalContextKey struct{}

// WithPrincipal binds p to ctx. A copy is stored so later changes to p are not visible.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	if p == nil {
		return ctx
	}
	c := *p
	return context.WithValue(ctx, principalContextKey{}, &c)
}

// PrincipalFromContext returns the principal bound by the authorization
// middleware. Public routes carry none.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	if ctx == nil {
		return nil, false
	}
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	if !ok || p == nil {
		return nil, false
	}
	c := *p
	return &c, true
}
