package config

import "time"

type SecurityConfig interface {
	GetSessionTTL() time.Duration
	GetReaperInterval() time.Duration
	GetSessionCookieName() string
	GetAllowLegacyCredentials() bool
	GetAdminRole() string
	GetAdminUsername() string
	GetAdminPassword() string
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetSessionTTL() time.Duration {
	return GetEnvDuration("SESSION_TTL", 30*24*time.Hour)
}

func (Security) GetReaperInterval() time.Duration {
	return GetEnvDuration("SESSION_REAPER_INTERVAL", 30*time.Minute)
}

func (Security) GetSessionCookieName() string {
	return GetEnv("SESSION_COOKIE_NAME", "wildlife_session")
}

// GetAllowLegacyCredentials controls whether untagged plaintext credentials
// written before hashing was introduced can still be used to log in.
func (Security) GetAllowLegacyCredentials() bool {
	return GetEnvBool("ALLOW_LEGACY_CREDENTIALS", true)
}

func (Security) GetAdminRole() string {
	return GetEnv("ADMIN_ROLE", "admin")
}

func (Security) GetAdminUsername() string {
	return GetEnv("ADMIN_USERNAME", "admin")
}

// GetAdminPassword is empty unless set; bootstrap generates one in that case.
func (Security) GetAdminPassword() string {
	return GetEnv("ADMIN_PASSWORD", "")
}
