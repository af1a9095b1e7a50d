package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/zastore/pkg/config"
	"github.com/go-redis/redis/v8"
)

// orderSequenceTTL keeps a day's counter around long enough to survive the
// UTC day boundary, then lets it expire.
const orderSequenceTTL = 48 * time.Hour

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

// NewRedisRepositoryWithClient wraps an existing client.
func NewRedisRepositoryWithClient(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client, config: &config.RedisConfig{}}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) StoreJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

// LoadJSON decodes the value at key into dest. A missing key reports false with no error.
func (r *RedisRepository) LoadJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// OrderSequenceKey names the per-day order counter.
func OrderSequenceKey(day time.Time) string {
	return fmt.Sprintf("order_seq:%s", day.UTC().Format("20060102"))
}

// NextOrderSequence atomically increments and returns the counter for the UTC day of day.
func (r *RedisRepository) NextOrderSequence(ctx context.Context, day time.Time) (int64, error) {
	key := OrderSequenceKey(day)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, orderSequenceTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}
	return incr.Val(), nil
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}
