package sqlrepo_test

import (
	"context"
	"path/filepath"
	"testing"

	apperrors "github.com/jrsteele09/wildlife-registry/internal/errors"
	"github.com/jrsteele09/wildlife-registry/users"
	"github.com/jrsteele09/wildlife-registry/users/sqlrepo"
	"github.com/stretchr/testify/require"
)

func openTestRepo(t *testing.T) *sqlrepo.SQLUserRepo {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "registry.db")
	repo, err := sqlrepo.Open(context.Background(), sqlrepo.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLUserRepo_UpsertAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	alice := &users.User{
		Username:   "alice",
		Email:      "alice@zoo.example",
		Role:       users.RoleCurator,
		Active:     true,
		Credential: "{SHA256}abc",
	}
	require.NoError(t, repo.Upsert(ctx, alice))
	require.NotZero(t, alice.ID)

	t.Run("by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.Equal(t, alice, got)
	})

	t.Run("by username is case insensitive", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "ALICE")
		require.NoError(t, err)
		require.Equal(t, alice.ID, got.ID)
	})

	t.Run("missing identity", func(t *testing.T) {
		_, err := repo.GetByID(ctx, alice.ID+100)
		require.ErrorIs(t, err, apperrors.ErrNotFound)

		_, err = repo.GetByUsername(ctx, "ghost")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("update existing", func(t *testing.T) {
		alice.Active = false
		alice.Role = users.RoleAdmin
		require.NoError(t, repo.Upsert(ctx, alice))

		got, err := repo.GetByID(ctx, alice.ID)
		require.NoError(t, err)
		require.False(t, got.Active)
		require.Equal(t, users.RoleAdmin, got.Role)
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		err := repo.Upsert(ctx, &users.User{Username: "Alice", Role: users.RoleKeeper, Active: true})
		require.Error(t, err)
	})
}

func TestSQLUserRepo_PersistCredential(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	bob := &users.User{Username: "bob", Role: users.RoleKeeper, Active: true, Credential: "old"}
	require.NoError(t, repo.Upsert(ctx, bob))

	ok, err := repo.PersistCredential(ctx, bob.ID, "{SHA256}new")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.GetByID(ctx, bob.ID)
	require.NoError(t, err)
	require.Equal(t, "{SHA256}new", got.Credential)

	ok, err = repo.PersistCredential(ctx, bob.ID+1, "{SHA256}other")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSQLUserRepo_List(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Upsert(ctx, &users.User{Username: name, Role: users.RoleKeeper, Active: true}))
	}

	all, err := repo.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "a", all[0].Username)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "b", page[0].Username)
}

func TestSQLUserRepo_InsertAfterExplicitID(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	seeded := &users.User{ID: 10, Username: "seeded", Role: users.RoleAdmin, Active: true}
	require.NoError(t, repo.Upsert(ctx, seeded))

	next := &users.User{Username: "next", Role: users.RoleKeeper, Active: true}
	require.NoError(t, repo.Upsert(ctx, next))
	require.Equal(t, int64(11), next.ID)

	got, err := repo.GetByID(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, "seeded", got.Username)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := sqlrepo.Open(context.Background(), "mysql", "dsn")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported driver")
}
