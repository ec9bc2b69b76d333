package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tradeAdmin/internal/models"
)

// Redis shares the trade cache between console instances.
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedis(rdb *redis.Client, ttl time.Duration, prefix string) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (r *Redis) key() string {
	if r.prefix == "" {
		return tradesKey
	}
	return fmt.Sprintf("%s:%s", r.prefix, tradesKey)
}

func (r *Redis) GetTrades(ctx context.Context) ([]models.Trade, bool, error) {
	raw, err := r.rdb.Get(ctx, r.key()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get trades: %w", err)
	}
	var trades []models.Trade
	if err := json.Unmarshal(raw, &trades); err != nil {
		return nil, false, fmt.Errorf("decode cached trades: %w", err)
	}
	return trades, true, nil
}

func (r *Redis) SetTrades(ctx context.Context, trades []models.Trade) error {
	if trades == nil {
		trades = []models.Trade{}
	}
	raw, err := json.Marshal(trades)
	if err != nil {
		return fmt.Errorf("encode trades: %w", err)
	}
	if err := r.rdb.Set(ctx, r.key(), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set trades: %w", err)
	}
	return nil
}

func (r *Redis) Invalidate(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key()).Err()
}
