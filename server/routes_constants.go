package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHealth = "/health"

	// Auth Routes
	RouteAuthLogin          = "/api/auth/login"
	RouteAuthLogout         = "/api/auth/logout"
	RouteAuthVerify         = "/api/auth/verify"
	RouteAuthChangePassword = "/api/auth/change-password"

	// Admin Routes
	RouteAdminSessions = "/api/admin/sessions"
	RouteAdminUsers    = "/api/admin/users"

	// Registry Routes (handled outside the authentication core)
	RouteSpecies   = "/api/species"
	RouteSpecimens = "/api/specimens"
	RouteRecords   = "/api/records"
)
