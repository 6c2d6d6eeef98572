package auth_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/wildlife-registry/auth"
	apperrors "github.com/jrsteele09/wildlife-registry/internal/errors"
	"github.com/jrsteele09/wildlife-registry/sessions"
	"github.com/jrsteele09/wildlife-registry/users"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// flakyStore fails or panics in ScanExpired for the first few calls.
type flakyStore struct {
	sessions.Store
	failures int32
	panics   int32
	scans    atomic.Int32
}

func (fs *flakyStore) ScanExpired(ctx context.Context, now time.Time) ([]string, error) {
	n := fs.scans.Add(1)
	if n <= fs.panics {
		panic("scan exploded")
	}
	if n <= fs.panics+fs.failures {
		return nil, fmt.Errorf("scan unavailable")
	}
	return fs.Store.ScanExpired(ctx, now)
}

func putSession(t *testing.T, store sessions.Store, token string, expiresAt time.Time) {
	t.Helper()
	require.NoError(t, store.Put(context.Background(), sessions.Session{
		Token:        token,
		IdentityID:   1,
		Username:     "alice",
		CreatedAt:    startTime,
		ExpiresAt:    expiresAt,
		LastActivity: startTime,
	}))
}

func TestReaper_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	store := sessions.NewMemoryStore(0)

	putSession(t, store, "expired", startTime.Add(-time.Minute))
	putSession(t, store, "boundary", startTime)
	putSession(t, store, "live", startTime.Add(time.Minute))

	reaper := auth.NewReaper(store, auth.WithReaperClock(clock.Now), auth.WithReaperLogger(zerolog.Nop()))
	removed, err := reaper.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	_, err = store.Get(ctx, "live")
	require.NoError(t, err)
	_, err = store.Get(ctx, "boundary")
	require.ErrorIs(t, err, sessions.ErrSessionNotFound)

	removed, err = reaper.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestReaper_SweepRecoversPanic(t *testing.T) {
	store := &flakyStore{Store: sessions.NewMemoryStore(0), panics: 1}
	putSession(t, store, "expired", startTime.Add(-time.Minute))
	clock := newTestClock()

	reaper := auth.NewReaper(store, auth.WithReaperClock(clock.Now), auth.WithReaperLogger(zerolog.Nop()))

	_, err := reaper.Sweep(context.Background())
	require.Error(t, err)

	removed, err := reaper.Sweep(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, removed)
}

func TestReaper_StartStop(t *testing.T) {
	store := &flakyStore{Store: sessions.NewMemoryStore(0), panics: 1, failures: 1}
	clock := newTestClock()
	putSession(t, store, "expired-1", startTime.Add(-time.Hour))
	putSession(t, store, "expired-2", startTime.Add(-time.Second))
	putSession(t, store, "live", startTime.Add(time.Hour))

	reaper := auth.NewReaper(store,
		auth.WithReaperInterval(5*time.Millisecond),
		auth.WithReaperClock(clock.Now),
		auth.WithReaperLogger(zerolog.Nop()),
	)

	ctx := context.Background()
	reaper.Start(ctx)
	reaper.Start(ctx) // second start is a no-op

	// A panicking sweep and a failing sweep do not stop the loop.
	require.Eventually(t, func() bool {
		n, err := store.Count(ctx)
		return err == nil && n == 1
	}, 2*time.Second, 5*time.Millisecond)

	reaper.Stop()
	reaper.Stop()

	scans := store.scans.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, scans, store.scans.Load())
}

func TestReaper_StopWithoutStart(t *testing.T) {
	reaper := auth.NewReaper(sessions.NewMemoryStore(0))
	require.NotPanics(t, reaper.Stop)
}

func TestReaper_ContextCancellationEndsLoop(t *testing.T) {
	store := &flakyStore{Store: sessions.NewMemoryStore(0)}
	reaper := auth.NewReaper(store, auth.WithReaperInterval(time.Millisecond), auth.WithReaperLogger(zerolog.Nop()))

	ctx, cancel := context.WithCancel(context.Background())
	reaper.Start(ctx)
	require.Eventually(t, func() bool { return store.scans.Load() > 0 }, time.Second, time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		reaper.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop after context cancellation")
	}
}

func TestReaper_SweptSessionNoLongerValidates(t *testing.T) {
	ctx := context.Background()
	f := newTestFixture(t)
	alice := f.addUser(t, "alice", auth.HashCredential("secret"), users.RoleCurator)

	s, err := f.manager.Create(ctx, alice)
	require.NoError(t, err)

	reaper := auth.NewReaper(f.store, auth.WithReaperClock(f.clock.Now), auth.WithReaperLogger(zerolog.Nop()))
	removed, err := reaper.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, removed)

	f.clock.Advance(auth.DefaultSessionTTL + time.Second)
	removed, err = reaper.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	require.Zero(t, f.sessionCount(t))

	_, err = f.manager.Validate(ctx, s.Token)
	require.ErrorIs(t, err, apperrors.ErrInvalidSession)
}
