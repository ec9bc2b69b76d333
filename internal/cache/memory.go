// Package cache keeps the last fetched trade collection between forced
// refreshes, either in process or in Redis.
package cache

import (
	"context"
	"slices"
	"time"

	"github.com/dgraph-io/ristretto"

	"tradeAdmin/internal/models"
)

const tradesKey = "trades:list"

// Memory is an in-process trade cache.
type Memory struct {
	c   *ristretto.Cache
	ttl time.Duration
}

func NewMemory(maxCost int64, ttl time.Duration) (*Memory, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Memory{c: c, ttl: ttl}, nil
}

func (m *Memory) GetTrades(context.Context) ([]models.Trade, bool, error) {
	v, ok := m.c.Get(tradesKey)
	if !ok {
		return nil, false, nil
	}
	trades, ok := v.([]models.Trade)
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(trades), true, nil
}

func (m *Memory) SetTrades(_ context.Context, trades []models.Trade) error {
	m.c.SetWithTTL(tradesKey, slices.Clone(trades), int64(len(trades))+1, m.ttl)
	m.c.Wait()
	return nil
}

func (m *Memory) Invalidate(context.Context) error {
	m.c.Del(tradesKey)
	return nil
}

func (m *Memory) Close() {
	m.c.Close()
}
