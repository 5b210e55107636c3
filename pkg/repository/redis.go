package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/shopcore/pkg/config"
	"github.com/go-redis/redis/v8"
)

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

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// OrderCache is the summary kept hot for status lookups. It is written on
// create and dropped on any status change, never updated in place.
type OrderCache struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Status      string  `json:"status"`
	TotalAmount float64 `json:"total_amount"`
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order:%s", orderID)
}

func (r *RedisRepository) CacheOrder(ctx context.Context, order *OrderCache) error {
	return r.SetJSON(ctx, orderKey(order.ID), order, 30*time.Minute)
}

func (r *RedisRepository) GetOrderCache(ctx context.Context, orderID string) (*OrderCache, error) {
	var order OrderCache
	if err := r.GetJSON(ctx, orderKey(orderID), &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *RedisRepository) InvalidateOrder(ctx context.Context, orderID string) error {
	return r.Del(ctx, orderKey(orderID))
}
