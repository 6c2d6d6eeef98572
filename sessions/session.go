package sessions

import "time"

// Session is one live login. Token is the lookup key; IdentityID never
// changes once the session is created.
type Session struct {
	Token        string    `json:"token"`         // Opaque, unguessable token presented by the caller
	IdentityID   int64     `json:"identity_id"`   // Owning identity
	Username     string    `json:"username"`      // Username snapshot taken at creation, for display only
	CreatedAt    time.Time `json:"created_at"`    // When the session was created
	ExpiresAt    time.Time `json:"expires_at"`    // Slides forward on every successful validation
	LastActivity time.Time `json:"last_activity"` // Last successful validation
}

// Expired reports whether the session is no longer usable at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
