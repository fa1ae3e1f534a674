package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when another holder owns the key.
var ErrNotAcquired = errors.New("lock: not acquired")

// Locker hands out short-lived exclusive leases keyed by name.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker uses SET NX PX so leases work across instances.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisLocker(rdb *redis.Client) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: "lock:"}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	name := l.prefix + key

	ok, err := l.rdb.SetNX(ctx, name, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrNotAcquired
	}

	return func() {
		_ = releaseScript.Run(context.Background(), l.rdb, []string{name}, token).Err()
	}, nil
}

// MemoryLocker is the single-instance fallback when Redis is unavailable.
type MemoryLocker struct {
	cache *cache.Cache
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{cache: cache.New(5*time.Minute, time.Minute)}
}

func (l *MemoryLocker) Acquire(_ context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	if err := l.cache.Add(key, token, ttl); err != nil {
		return nil, ErrNotAcquired
	}
	return func() {
		if v, ok := l.cache.Get(key); ok && v.(string) == token {
			l.cache.Delete(key)
		}
	}, nil
}

// New picks Redis when a client is configured and reachable.
func New(ctx context.Context, rdb *redis.Client) Locker {
	if rdb != nil && rdb.Ping(ctx).Err() == nil {
		return NewRedisLocker(rdb)
	}
	return NewMemoryLocker()
}
