package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	lockPrefix       = "lock:"
	DefaultLockTTL   = 5 * time.Minute
	defaultLockRetry = 50 * time.Millisecond
)

// releaseScript deletes the lock only if the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker serializes work per key across processes. A lock not released
// within ttl expires so a crashed holder cannot block the key forever.
type RedisLocker struct {
	rdb   *redis.Client
	ttl   time.Duration
	retry time.Duration
	log   *zap.Logger
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, retry: defaultLockRetry, log: zap.NewNop()}
}

// WithLogger sets the logger that reports failed or late releases.
func (l *RedisLocker) WithLogger(log *zap.Logger) *RedisLocker {
	if log != nil {
		l.log = log
	}
	return l
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	k := lockPrefix + key
	owner := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, k, owner, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	return func() {
		// the caller's ctx may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n, err := releaseScript.Run(ctx, l.rdb, []string{k}, owner).Int()
		switch {
		case err != nil:
			l.log.Warn("release lock", zap.String("key", key), zap.Error(err))
		case n == 0:
			// held past ttl; another owner may have run concurrently
			l.log.Warn("lock expired before release", zap.String("key", key), zap.Duration("ttl", l.ttl))
		}
	}, nil
}
