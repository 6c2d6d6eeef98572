package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/wildlife-registry/auth"
	"github.com/jrsteele09/wildlife-registry/sessions"
	"github.com/jrsteele09/wildlife-registry/users"
	fakeuserrepo "github.com/jrsteele09/wildlife-registry/users/repofake"
	"github.com/stretchr/testify/require"
)

var startTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// testClock is a settable clock shared by the manager, reaper and tests.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: startTime}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testFixture holds all test dependencies
type testFixture struct {
	clock    *testClock
	userRepo *fakeuserrepo.FakeUserRepo
	store    *sessions.MemoryStore
	manager  *auth.SessionManager
	service  *auth.AuthenticationService
}

func newTestFixture(t *testing.T, options ...auth.AuthenticationServiceOption) *testFixture {
	t.Helper()

	clock := newTestClock()
	userRepo := fakeuserrepo.NewFakeUserRepo()
	store := sessions.NewMemoryStore(0)

	manager, err := auth.NewSessionManager(store, userRepo, auth.WithSessionClock(clock.Now))
	require.NoError(t, err)

	service, err := auth.NewAuthenticationService(userRepo, manager, options...)
	require.NoError(t, err)

	return &testFixture{
		clock:    clock,
		userRepo: userRepo,
		store:    store,
		manager:  manager,
		service:  service,
	}
}

func (f *testFixture) addUser(t *testing.T, username, credential string, role users.RoleType) *users.User {
	t.Helper()

	user := &users.User{
		Username:   username,
		Email:      username + "@registry.example",
		Role:       role,
		Active:     true,
		Credential: credential,
	}
	require.NoError(t, f.userRepo.Upsert(context.Background(), user))
	return user
}

func (f *testFixture) sessionCount(t *testing.T) int {
	t.Helper()

	n, err := f.store.Count(context.Background())
	require.NoError(t, err)
	return n
}
