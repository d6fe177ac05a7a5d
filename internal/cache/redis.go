package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in Redis so that several API processes share
// invalidations. Each company keeps a set of its live keys under
// {prefix}:{company}:keys and an invalidation counter under {prefix}:{company}:gen.
type RedisCache struct {
	rdb      *redis.Client
	prefix   string
	indexTTL time.Duration
}

// NewRedisCache creates a RedisCache. indexTTL must be at least the longest
// TTL passed to Set.
func NewRedisCache(rdb *redis.Client, prefix string, indexTTL time.Duration) (*RedisCache, error) {
	if prefix == "" {
		return nil, fmt.Errorf("cache prefix cannot be empty")
	}
	return &RedisCache{rdb: rdb, prefix: prefix, indexTTL: indexTTL}, nil
}

func (c *RedisCache) entryKey(key Key) string {
	return c.prefix + ":" + key.String()
}

func (c *RedisCache) indexKey(companyCode string) string {
	return c.prefix + ":" + companyCode + ":keys"
}

func (c *RedisCache) generationKey(companyCode string) string {
	return c.prefix + ":" + companyCode + ":gen"
}

var errStaleGeneration = errors.New("cache generation changed")

func (c *RedisCache) Generation(ctx context.Context, companyCode string) (uint64, error) {
	return readGeneration(ctx, c.rdb, c.generationKey(companyCode))
}

// stringGetter is satisfied by both *redis.Client and *redis.Tx.
type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, cmd stringGetter, key string) (uint64, error) {
	generation, err := cmd.Get(ctx, key).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return generation, nil
}

func (c *RedisCache) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	value, err := c.rdb.Get(ctx, c.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return value, true, nil
}

// Set watches the company's generation key, so an Invalidate that lands
// between the check and the write aborts the transaction.
func (c *RedisCache) Set(ctx context.Context, key Key, value []byte, ttl time.Duration, generation uint64) error {
	indexTTL := c.indexTTL
	if ttl > indexTTL {
		indexTTL = ttl
	}

	genKey := c.generationKey(key.CompanyCode)
	index := c.indexKey(key.CompanyCode)
	entry := c.entryKey(key)
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, genKey)
		if err != nil {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, entry, value, ttl)
			pipe.SAdd(ctx, index, entry)
			pipe.Expire(ctx, index, indexTTL)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil, errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
}

func (c *RedisCache) Invalidate(ctx context.Context, companyCode string) error {
	if err := c.rdb.Incr(ctx, c.generationKey(companyCode)).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}

	index := c.indexKey(companyCode)
	keys, err := c.rdb.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("failed to read cache index: %w", err)
	}

	if err := c.rdb.Del(ctx, append(keys, index)...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	return nil
}

// Ping verifies Redis connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
