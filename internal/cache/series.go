// Package cache keeps recently fetched price series so repeated analyses of
// the same stock within a session do not hit the upstream sources again.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"twstock-advisor/internal/domain"
)

const keyPrefix = "twstock:series:"

type SeriesCache interface {
	Get(ctx context.Context, key string) (domain.PriceSeries, bool, error)
	Set(ctx context.Context, key string, series domain.PriceSeries, ttl time.Duration) error
}

// SeriesKey scopes a cached series to the stock, window and calendar day.
func SeriesKey(stockID string, months int, day string) string {
	return fmt.Sprintf("%s%s:%d:%s", keyPrefix, stockID, months, day)
}

type RedisSeriesCache struct {
	client *redis.Client
}

func NewRedisSeriesCache(client *redis.Client) *RedisSeriesCache {
	return &RedisSeriesCache{client: client}
}

func (c *RedisSeriesCache) Get(ctx context.Context, key string) (domain.PriceSeries, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.PriceSeries{}, false, nil
	}
	if err != nil {
		return domain.PriceSeries{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var series domain.PriceSeries
	if err := json.Unmarshal(raw, &series); err != nil {
		return domain.PriceSeries{}, false, fmt.Errorf("decode cached series %s: %w", key, err)
	}
	return series, true, nil
}

func (c *RedisSeriesCache) Set(ctx context.Context, key string, series domain.PriceSeries, ttl time.Duration) error {
	raw, err := json.Marshal(series)
	if err != nil {
		return fmt.Errorf("encode series %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

type MemorySeriesCache struct {
	internal *gocache.Cache
}

func NewMemorySeriesCache(defaultTTL, cleanupInterval time.Duration) *MemorySeriesCache {
	return &MemorySeriesCache{internal: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *MemorySeriesCache) Get(_ context.Context, key string) (domain.PriceSeries, bool, error) {
	v, ok := c.internal.Get(key)
	if !ok {
		return domain.PriceSeries{}, false, nil
	}
	series, ok := v.(domain.PriceSeries)
	if !ok {
		return domain.PriceSeries{}, false, nil
	}
	return copySeries(series), true, nil
}

func (c *MemorySeriesCache) Set(_ context.Context, key string, series domain.PriceSeries, ttl time.Duration) error {
	c.internal.Set(key, copySeries(series), ttl)
	return nil
}

func copySeries(s domain.PriceSeries) domain.PriceSeries {
	s.Points = append([]domain.PricePoint(nil), s.Points...)
	return s
}
