package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// AUTH
	s.RegisterRouteFunc("POST "+RouteAuthLogin, s.LoginHandler())
	s.RegisterRouteFunc("POST "+RouteAuthLogout, s.LogoutHandler())
	s.RegisterRouteFunc("GET "+RouteAuthVerify, s.VerifyHandler())
	s.RegisterRouteFunc("POST "+RouteAuthChangePassword, s.ChangePasswordHandler())

	// ADMIN
	s.RegisterRouteFunc("GET "+RouteAdminSessions, s.AdminSessionsHandler())
	s.RegisterRouteFunc("GET "+RouteAdminUsers, s.AdminUsersHandler())

	// REGISTRY
	for _, prefix := range []string{RouteSpecies, RouteSpecimens, RouteRecords} {
		s.RegisterRouteFunc(prefix, s.NotImplementedHandler())
		s.RegisterRouteFunc(prefix+"/", s.NotImplementedHandler())
	}
}
