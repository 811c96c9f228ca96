package recent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "whatssound:recent:"
	redisTTL       = 30 * 24 * time.Hour
	maxTxRetries   = 5
)

// RedisStore keeps recent searches in Redis lists so every API replica sees
// the same history.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(owner string) string {
	return redisKeyPrefix + owner
}

// List returns the owner's list, most recent first.
func (r *RedisStore) List(ctx context.Context, owner string) ([]string, error) {
	list, err := r.client.LRange(ctx, redisKey(owner), 0, MaxRecentSearches-1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read recent searches: %w", err)
	}
	return list, nil
}

// Add applies the same move-to-front rule as Add inside an optimistic
// transaction, retrying when another writer touches the key first.
func (r *RedisStore) Add(ctx context.Context, owner, term string) ([]string, error) {
	key := redisKey(owner)

	var updated []string
	txf := func(tx *redis.Tx) error {
		current, err := tx.LRange(ctx, key, 0, MaxRecentSearches-1).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		updated = Add(current, term)
		if len(updated) == 0 {
			return nil
		}

		values := make([]interface{}, len(updated))
		for i, v := range updated {
			values[i] = v
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.RPush(ctx, key, values...)
			pipe.Expire(ctx, key, redisTTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := r.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, fmt.Errorf("add recent search: %w", err)
	}
	return nil, fmt.Errorf("add recent search: too much contention on %s", key)
}

// Clear deletes the owner's list.
func (r *RedisStore) Clear(ctx context.Context, owner string) error {
	if err := r.client.Del(ctx, redisKey(owner)).Err(); err != nil {
		return fmt.Errorf("clear recent searches: %w", err)
	}
	return nil
}
