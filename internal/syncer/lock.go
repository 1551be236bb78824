package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrSyncInProgress means another worker already holds the lock for this
// connection and entity. The caller fails fast; it never queues behind the
// running sync.
var ErrSyncInProgress = errors.New("a sync for this connection and entity is already running")

// Locker serializes syncs per (connection, entity) key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// MutexLocker is the single-process fallback used when no Redis address is
// configured.
type MutexLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewMutexLocker() *MutexLocker {
	return &MutexLocker{held: make(map[string]bool)}
}

func (l *MutexLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, ErrSyncInProgress
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}

// RedisLocker takes distributed advisory locks so concurrent API replicas and
// workers cannot run the same sync twice.
type RedisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{client: redislock.New(rdb)}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if err == redislock.ErrNotObtained {
		return nil, ErrSyncInProgress
	}
	if err != nil {
		return nil, errors.Wrap(err, "obtain sync lock")
	}
	return func() {
		// best effort; the TTL reclaims the lock if release fails
		_ = lock.Release(context.Background())
	}, nil
}

func lockKey(connectionID string, entity string) string {
	return "practice-api:sync:" + connectionID + ":" + entity
}
