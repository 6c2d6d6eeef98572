package users

import "strings"

// RoleType identifies the role of an identity within the registry
type RoleType string

const (
	RoleAdmin   RoleType = "admin"   // Manages identities and registry configuration
	RoleCurator RoleType = "curator" // Maintains species and specimen records
	RoleKeeper  RoleType = "keeper"  // Records intake and discharge events
)

// User is an identity known to the registry. The identity store owns it; the
// authentication core only reads it and reacts to Active and Role.
type User struct {
	ID         int64    `json:"id"`              // Unique numeric identifier
	Username   string   `json:"username"`        // Unique login name
	Email      string   `json:"email,omitempty"` // Contact address
	Role       RoleType `json:"role"`            // Role identifier
	Active     bool     `json:"active"`          // Inactive identities cannot log in or keep sessions
	Credential string   `json:"-"`               // Stored credential representation - never serialize
}

// HasRole compares roles case-insensitively; stored roles predate normalisation.
func (u *User) HasRole(role RoleType) bool {
	return u != nil && strings.EqualFold(string(u.Role), string(role))
}

// Clone returns a copy so callers cannot mutate repository state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
