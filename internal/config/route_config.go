package config

import "github.com/jrsteele09/wildlife-registry/auth"

type RouteConfig interface {
	GetRouteRules() []auth.RouteRule
}

type Routes struct{}

var _ RouteConfig = Routes{}

// GetRouteRules returns the route classification table. Public rules are
// always evaluated before the others; paths matching nothing are Protected.
func (Routes) GetRouteRules() []auth.RouteRule {
	return []auth.RouteRule{
		{Prefix: "/health", Class: auth.RouteClassPublic},
		{Prefix: "/api/auth/login", Class: auth.RouteClassPublic},
		{Prefix: "/api/auth/logout", Class: auth.RouteClassPublic},
		{Prefix: "/api/admin/", Class: auth.RouteClassAdminOnly},
		{Prefix: "/api/auth/", Class: auth.RouteClassProtected},
		{Prefix: "/api/species", Class: auth.RouteClassProtected},
		{Prefix: "/api/specimens", Class: auth.RouteClassProtected},
		{Prefix: "/api/records", Class: auth.RouteClassProtected},
	}
}
