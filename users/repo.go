package users

import "context"

// UserRepo is the identity store used by the authentication core.
// Lookups return errors.ErrNotFound (internal/errors) when no identity matches.
type UserRepo interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	// PersistCredential stores a new credential and reports whether an identity was updated.
	PersistCredential(ctx context.Context, id int64, credential string) (bool, error)
	// Upsert creates the user when ID is zero (assigning one) or replaces it otherwise.
	Upsert(ctx context.Context, user *User) error
	List(ctx context.Context, offset, limit int) ([]*User, error)
}
