package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyKeyPrefix = "idempotency:checkout:"
	idempotencyKeyTTL    = 24 * time.Hour
)

// IdempotencyStore remembers checkout keys so a retried request is not
// turned into a second order.
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: idempotencyKeyTTL}
}

func idempotencyKey(userID uint, key string) string {
	return idempotencyKeyPrefix + strconv.FormatUint(uint64(userID), 10) + ":" + key
}

// Claim returns false when this user already claimed the key.
func (s *IdempotencyStore) Claim(ctx context.Context, userID uint, key string) (bool, error) {
	return s.client.SetNX(ctx, idempotencyKey(userID, key), 1, s.ttl).Result()
}

// Release frees a key whose checkout failed, so the client may retry.
func (s *IdempotencyStore) Release(ctx context.Context, userID uint, key string) error {
	return s.client.Del(ctx, idempotencyKey(userID, key)).Err()
}
