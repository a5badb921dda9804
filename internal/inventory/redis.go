package inventory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"aurelia-be/internal/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	lockKeyPrefix  = "lock:product:"
	baseBackoff    = 10 * time.Millisecond
	maxBackoff     = 250 * time.Millisecond
	releaseTimeout = 2 * time.Second
)

// Only the holder of the token may delete the key.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

var renewScript = redis.NewScript(`
local renewed = 0
for i, key in ipairs(KEYS) do
	if redis.call('GET', key) == ARGV[1] then
		redis.call('PEXPIRE', key, ARGV[2])
		renewed = renewed + 1
	end
end
return renewed
`)

// RedisLocker takes one SET NX lock per product. The TTL bounds how long a
// crashed instance can block other checkouts; a live holder keeps extending
// it every ttl/3 until release.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, productIDs []string) (func(), error) {
	token := uuid.NewString()
	keys := lockOrder(productIDs)
	held := make([]string, 0, len(keys))

	for _, id := range keys {
		key := lockKeyPrefix + id
		if err := l.acquireOne(ctx, key, token); err != nil {
			l.releaseAll(ctx, held, token)
			return nil, err
		}
		held = append(held, key)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(logger.Detach(ctx), held, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			l.releaseAll(ctx, held, token)
		})
	}, nil
}

// keepAlive extends the lease on held keys until stop is closed.
func (l *RedisLocker) keepAlive(ctx context.Context, keys []string, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			renewCtx, cancel := context.WithTimeout(ctx, releaseTimeout)
			n, err := renewScript.Run(renewCtx, l.client, keys, token, l.ttl.Milliseconds()).Int()
			cancel()

			switch {
			case err != nil:
				logger.FromCtx(ctx).Warn("failed to extend product locks",
					zap.String("layer", "inventory"),
					zap.Strings("keys", keys),
					zap.Error(err),
				)
			case n < len(keys):
				logger.FromCtx(ctx).Error("product lock lost before release",
					zap.String("layer", "inventory"),
					zap.Strings("keys", keys),
					zap.Int("renewed", n),
				)
			}
		}
	}
}

func (l *RedisLocker) acquireOne(ctx context.Context, key, token string) error {
	for attempt := 0; ; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
			}
			return fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-time.After(backoff(attempt)):
		}
	}
}

func (l *RedisLocker) releaseAll(ctx context.Context, keys []string, token string) {
	relCtx, cancel := context.WithTimeout(logger.Detach(ctx), releaseTimeout)
	defer cancel()

	for i := len(keys) - 1; i >= 0; i-- {
		if err := releaseScript.Run(relCtx, l.client, []string{keys[i]}, token).Err(); err != nil {
			logger.FromCtx(ctx).Warn("failed to release product lock",
				zap.String("layer", "inventory"),
				zap.String("key", keys[i]),
				zap.Error(err),
			)
		}
	}
}

func backoff(attempt int) time.Duration {
	if attempt > 5 {
		attempt = 5
	}
	exp := baseBackoff * time.Duration(1<<attempt)
	if exp > maxBackoff {
		exp = maxBackoff
	}
	jitter := time.Duration(rand.Int63n(int64(exp/2) + 1))
	return exp + jitter
}
