package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	onHandKeyPrefix  = "onhand:"
	appliedKeyPrefix = "ledger:applied:"

	// Long enough to outlive any plausible client retry window.
	appliedKeyTTL = 24 * time.Hour
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetApplied(ctx context.Context, txnID string) (bool, error) {
	return r.client.SetNX(ctx, appliedKeyPrefix+txnID, 1, appliedKeyTTL).Result()
}

func (r *RedisAdapter) ClearApplied(ctx context.Context, txnID string) error {
	return r.client.Del(ctx, appliedKeyPrefix+txnID).Err()
}

func (r *RedisAdapter) SetQuantity(ctx context.Context, itemID string, quantity int) error {
	return r.client.Set(ctx, onHandKeyPrefix+itemID, quantity, 0).Err()
}

func (r *RedisAdapter) GetQuantity(ctx context.Context, itemID string) (int, bool, error) {
	quantity, err := r.client.Get(ctx, onHandKeyPrefix+itemID).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return quantity, true, nil
}
