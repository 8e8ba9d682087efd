package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yasarair/flightcore/config"
)

// RedisCache holds flight reference data (city lists) with a TTL. It is an
// optional capability: Ping tells callers whether the cache is reachable, and
// read misses or errors degrade to a database read.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg config.RedisConfig, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ttl:    ttl,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetCities(ctx context.Context, key string) ([]string, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var cities []string
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}

func (c *RedisCache) SetCities(ctx context.Context, key string, cities []string) error {
	payload, err := json.Marshal(cities)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}

const (
	KeyAirports     = "cache:airports"
	KeyDestinations = "cache:destinations"
)
