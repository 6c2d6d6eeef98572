package sessions

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

const defaultShardCount = 64

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps sessions in process memory, split over shards. Each
// session sits behind its own atomic pointer, so reads and renewals take only
// the shard's shared lock and never wait on one another. Only Put and Remove,
// which change a shard's membership, hold the shard exclusively.
type MemoryStore struct {
	shards []*memoryShard
}

type memoryShard struct {
	lock     sync.RWMutex
	sessions map[string]*atomic.Pointer[Session]
}

// NewMemoryStore creates a store with shardCount shards; values below one
// select the default.
func NewMemoryStore(shardCount int) *MemoryStore {
	if shardCount < 1 {
		shardCount = defaultShardCount
	}
	shards := make([]*memoryShard, shardCount)
	for i := range shards {
		shards[i] = &memoryShard{sessions: make(map[string]*atomic.Pointer[Session])}
	}
	return &MemoryStore{shards: shards}
}

func (ms *MemoryStore) shard(token string) *memoryShard {
	return ms.shards[xxhash.Sum64String(token)%uint64(len(ms.shards))]
}

func (ms *MemoryStore) Put(_ context.Context, s Session) error {
	entry := &atomic.Pointer[Session]{}
	entry.Store(&s)

	sh := ms.shard(s.Token)
	sh.lock.Lock()
	defer sh.lock.Unlock()

	sh.sessions[s.Token] = entry
	return nil
}

func (ms *MemoryStore) Get(_ context.Context, token string) (*Session, error) {
	sh := ms.shard(token)
	sh.lock.RLock()
	defer sh.lock.RUnlock()

	entry, ok := sh.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s := *entry.Load()
	return &s, nil
}

func (ms *MemoryStore) Remove(_ context.Context, token string) error {
	sh := ms.shard(token)
	sh.lock.Lock()
	defer sh.lock.Unlock()

	delete(sh.sessions, token)
	return nil
}

// Touch holds the shard's shared lock for the whole update, so a concurrent
// Remove either happens first (and Touch reports false) or waits for it.
func (ms *MemoryStore) Touch(_ context.Context, token string, expiresAt, lastActivity time.Time) (bool, error) {
	sh := ms.shard(token)
	sh.lock.RLock()
	defer sh.lock.RUnlock()

	entry, ok := sh.sessions[token]
	if !ok {
		return false, nil
	}
	for {
		current := entry.Load()
		next := *current
		next.ExpiresAt = expiresAt
		next.LastActivity = lastActivity
		if entry.CompareAndSwap(current, &next) {
			return true, nil
		}
	}
}

func (ms *MemoryStore) ScanExpired(_ context.Context, now time.Time) ([]string, error) {
	var tokens []string
	for _, sh := range ms.shards {
		sh.lock.RLock()
		for token, entry := range sh.sessions {
			if entry.Load().Expired(now) {
				tokens = append(tokens, token)
			}
		}
		sh.lock.RUnlock()
	}
	return tokens, nil
}

func (ms *MemoryStore) TokensFor(_ context.Context, identityID int64) ([]string, error) {
	var tokens []string
	for _, sh := range ms.shards {
		sh.lock.RLock()
		for token, entry := range sh.sessions {
			if entry.Load().IdentityID == identityID {
				tokens = append(tokens, token)
			}
		}
		sh.lock.RUnlock()
	}
	return tokens, nil
}

func (ms *MemoryStore) Count(_ context.Context) (int, error) {
	total := 0
	for _, sh := range ms.shards {
		sh.lock.RLock()
		total += len(sh.sessions)
		sh.lock.RUnlock()
	}
	return total, nil
}

// Close is a no-op; it lets MemoryStore stand in wherever a closable store is expected.
func (ms *MemoryStore) Close() error {
	return nil
}
