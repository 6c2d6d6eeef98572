package sessions

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// errCorruptSession marks a stored value that no longer decodes as a Session.
var errCorruptSession = errors.New("corrupt session value")

// touchScript rewrites a session only if it still exists, so a renewal
// racing with a removal cannot bring the session back.
var touchScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1])
redis.call("ZADD", KEYS[2], ARGV[2], ARGV[3])
return 1
`)

var _ Store = (*RedisStore)(nil)

// RedisStore keeps sessions in Redis so that they survive restarts.
//
// Layout under the configured prefix:
//   - session:<token>   JSON encoded Session
//   - sessions:expiry   sorted set of tokens scored by expiry (unix ms)
//   - identity:<id>     set of tokens owned by an identity
//
// Keys carry no Redis TTL; expired entries are removed by the reaper.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisStore) sessionKey(token string) string {
	return r.prefix + "session:" + token
}

func (r *RedisStore) expiryKey() string {
	return r.prefix + "sessions:expiry"
}

func (r *RedisStore) identityKey(identityID int64) string {
	return r.prefix + "identity:" + strconv.FormatInt(identityID, 10)
}

func (r *RedisStore) Put(ctx context.Context, s Session) error {
	if s.Token == "" {
		return errors.New("[RedisStore.Put] missing token")
	}

	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "[RedisStore.Put] marshal")
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.sessionKey(s.Token), data, 0)
		pipe.ZAdd(ctx, r.expiryKey(), redis.Z{Score: expiryScore(s.ExpiresAt), Member: s.Token})
		pipe.SAdd(ctx, r.identityKey(s.IdentityID), s.Token)
		return nil
	})
	return errors.Wrap(err, "[RedisStore.Put] exec")
}

func (r *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	val, err := r.client.Get(ctx, r.sessionKey(token)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisStore.Get]")
	}

	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, errors.Wrapf(errCorruptSession, "[RedisStore.Get] unmarshal: %v", err)
	}
	return &s, nil
}

// Remove deletes the session and its index entries. A value that cannot be
// decoded is still deleted; only its owner index entry is left behind.
func (r *RedisStore) Remove(ctx context.Context, token string) error {
	s, err := r.Get(ctx, token)
	switch {
	case err == nil, errors.Is(err, ErrSessionNotFound):
	case errors.Is(err, errCorruptSession):
		log.Warn().Err(err).Msg("Removing undecodable session")
	default:
		return errors.Wrap(err, "[RedisStore.Remove]")
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.sessionKey(token))
		pipe.ZRem(ctx, r.expiryKey(), token)
		if s != nil {
			pipe.SRem(ctx, r.identityKey(s.IdentityID), token)
		}
		return nil
	})
	return errors.Wrap(err, "[RedisStore.Remove] exec")
}

func (r *RedisStore) Touch(ctx context.Context, token string, expiresAt, lastActivity time.Time) (bool, error) {
	s, err := r.Get(ctx, token)
	if errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "[RedisStore.Touch]")
	}

	s.ExpiresAt = expiresAt
	s.LastActivity = lastActivity
	data, err := json.Marshal(s)
	if err != nil {
		return false, errors.Wrap(err, "[RedisStore.Touch] marshal")
	}

	updated, err := touchScript.Run(ctx, r.client,
		[]string{r.sessionKey(token), r.expiryKey()},
		string(data), expiryScore(expiresAt), token,
	).Int()
	if err != nil {
		return false, errors.Wrap(err, "[RedisStore.Touch] script")
	}
	return updated == 1, nil
}

// expiryScore is t in unix milliseconds, rounded up so that the index never
// reports a session before it has expired.
func expiryScore(t time.Time) float64 {
	ms := t.UnixMilli()
	if t.After(time.UnixMilli(ms)) {
		ms++
	}
	return float64(ms)
}

func (r *RedisStore) ScanExpired(ctx context.Context, now time.Time) ([]string, error) {
	tokens, err := r.client.ZRangeByScore(ctx, r.expiryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return nil, errors.Wrap(err, "[RedisStore.ScanExpired]")
	}
	return tokens, nil
}

func (r *RedisStore) TokensFor(ctx context.Context, identityID int64) ([]string, error) {
	tokens, err := r.client.SMembers(ctx, r.identityKey(identityID)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "[RedisStore.TokensFor]")
	}
	return tokens, nil
}

func (r *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := r.client.ZCard(ctx, r.expiryKey()).Result()
	if err != nil {
		return 0, errors.Wrap(err, "[RedisStore.Count]")
	}
	return int(n), nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
