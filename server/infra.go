package server

import (
	"context"
	"io"

	"github.com/jrsteele09/wildlife-registry/internal/config"
	"github.com/jrsteele09/wildlife-registry/internal/redisclient"
	"github.com/jrsteele09/wildlife-registry/sessions"
	"github.com/jrsteele09/wildlife-registry/users/sqlrepo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Backends are the stores the server runs on. Close releases them in
// reverse order of opening.
type Backends struct {
	Sessions sessions.Store
	Users    *sqlrepo.SQLUserRepo
	closers  []io.Closer
}

// OpenBackends connects the identity database and the configured session store.
func OpenBackends(ctx context.Context, c config.StoreConfig) (*Backends, error) {
	b := &Backends{}

	userRepo, err := sqlrepo.Open(ctx, c.GetDatabaseDriver(), c.GetDatabaseDSN())
	if err != nil {
		return nil, errors.Wrap(err, "[OpenBackends] identity store")
	}
	b.Users = userRepo
	b.closers = append(b.closers, userRepo)

	store, err := openSessionStore(ctx, c)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Sessions = store
	if closer, ok := store.(io.Closer); ok {
		b.closers = append(b.closers, closer)
	}

	log.Info().
		Str("database", c.GetDatabaseDriver()).
		Str("sessions", c.GetSessionBackend()).
		Msg("Backends ready")
	return b, nil
}

func openSessionStore(ctx context.Context, c config.StoreConfig) (sessions.Store, error) {
	switch c.GetSessionBackend() {
	case config.SessionBackendMemory:
		return sessions.NewMemoryStore(0), nil
	case config.SessionBackendRedis:
		client, err := redisclient.New(ctx, c.GetRedisAddr(), c.GetRedisPassword(), c.GetRedisDB())
		if err != nil {
			return nil, errors.Wrap(err, "[OpenBackends] session store")
		}
		return sessions.NewRedisStore(client, c.GetRedisPrefix()), nil
	default:
		return nil, errors.Errorf("[OpenBackends] unsupported session backend %q", c.GetSessionBackend())
	}
}

func (b *Backends) Close() error {
	var firstErr error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	b.closers = nil
	return firstErr
}
