package server_test

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/wildlife-registry/internal/config"
	"github.com/jrsteele09/wildlife-registry/server"
	"github.com/jrsteele09/wildlife-registry/sessions"
	"github.com/stretchr/testify/require"
)

func TestOpenBackends_MemorySessions(t *testing.T) {
	t.Setenv("DATABASE_DSN", filepath.Join(t.TempDir(), "registry.db"))
	t.Setenv("SESSION_BACKEND", config.SessionBackendMemory)

	backends, err := server.OpenBackends(context.Background(), config.Store{})
	require.NoError(t, err)
	defer backends.Close()

	_, ok := backends.Sessions.(*sessions.MemoryStore)
	require.True(t, ok)
	require.NotNil(t, backends.Users)
}

func TestOpenBackends_RedisSessions(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	t.Setenv("DATABASE_DSN", filepath.Join(t.TempDir(), "registry.db"))
	t.Setenv("SESSION_BACKEND", config.SessionBackendRedis)
	t.Setenv("REDIS_ADDR", mr.Addr())

	backends, err := server.OpenBackends(context.Background(), config.Store{})
	require.NoError(t, err)

	_, ok := backends.Sessions.(*sessions.RedisStore)
	require.True(t, ok)
	require.NoError(t, backends.Close())
}

func TestOpenBackends_UnsupportedSessionBackend(t *testing.T) {
	t.Setenv("DATABASE_DSN", filepath.Join(t.TempDir(), "registry.db"))
	t.Setenv("SESSION_BACKEND", "memcached")

	_, err := server.OpenBackends(context.Background(), config.Store{})
	require.Error(t, err)
}

// End to end over the SQL identity store and Redis sessions.
func TestServer_WithPersistentBackends(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	t.Setenv("ENV", "TEST")
	t.Setenv("DATABASE_DSN", filepath.Join(t.TempDir(), "registry.db"))
	t.Setenv("SESSION_BACKEND", config.SessionBackendRedis)
	t.Setenv("REDIS_ADDR", mr.Addr())
	t.Setenv("ADMIN_USERNAME", adminUsername)
	t.Setenv("ADMIN_PASSWORD", adminPassword)

	backends, err := server.OpenBackends(context.Background(), config.Store{})
	require.NoError(t, err)
	defer backends.Close()

	s, err := server.New(config.New(), backends.Users, backends.Sessions)
	require.NoError(t, err)

	ts := &testServer{server: s}
	token := ts.login(t, adminUsername, adminPassword)

	rec, resp := ts.do(t, http.MethodGet, server.RouteAdminSessions, token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"sessions":1}`, string(resp.Data))

	rec, _ = ts.do(t, http.MethodPost, server.RouteAuthLogout, token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.do(t, http.MethodGet, server.RouteAdminSessions, token, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
