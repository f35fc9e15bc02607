// Package cache keeps pages of product search results in redis.
//
// Every cached page is stored under the current generation number. A
// mutation bumps the generation, which makes all older pages unreachable;
// they are left to expire through their TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mrEvil84/BlueStorage/internal/domain"
)

type Config struct {
	Addr   string
	Prefix string
	TTL    time.Duration
}

type Stats struct {
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Errors        uint64 `json:"errors"`
	Invalidations uint64 `json:"invalidations"`
}

type SearchCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *logrus.Logger

	hits          atomic.Uint64
	misses        atomic.Uint64
	errors        atomic.Uint64
	invalidations atomic.Uint64
}

func NewSearchCache(client *redis.Client, prefix string, ttl time.Duration, logger *logrus.Logger) *SearchCache {
	return &SearchCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		log:    logger,
	}
}

// Connect dials redis and verifies the connection.
func Connect(ctx context.Context, cfg Config, logger *logrus.Logger) (*SearchCache, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewSearchCache(client, cfg.Prefix, cfg.TTL, logger), nil
}

func (c *SearchCache) generationKey() string {
	return c.prefix + "generation"
}

func (c *SearchCache) pageKey(generation int64, key string) string {
	return c.prefix + "search:" + strconv.FormatInt(generation, 10) + ":" + key
}

func (c *SearchCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Fetch returns the cached page for key or calls load and caches its result.
// Redis failures are logged and load is used directly.
func (c *SearchCache) Fetch(ctx context.Context, key string, load func(context.Context) ([]domain.Product, error)) ([]domain.Product, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.errors.Add(1)
		c.log.Warnf("Cache: Failed to read generation, bypassing cache: %v", err)
		return load(ctx)
	}
	fullKey := c.pageKey(gen, key)

	data, err := c.client.Get(ctx, fullKey).Bytes()
	switch {
	case err == nil:
		var products []domain.Product
		jsonErr := json.Unmarshal(data, &products)
		if jsonErr == nil {
			c.hits.Add(1)
			return products, nil
		}
		c.errors.Add(1)
		c.log.Warnf("Cache: Dropping undecodable entry %s: %v", fullKey, jsonErr)
	case errors.Is(err, redis.Nil):
		c.misses.Add(1)
	default:
		c.errors.Add(1)
		c.log.Warnf("Cache: Failed to read %s: %v", fullKey, err)
	}

	products, err := load(ctx)
	if err != nil {
		return nil, err
	}

	// Stored under the generation read before load, so a page loaded
	// across a concurrent mutation lands in a generation nobody reads.
	data, err = json.Marshal(products)
	if err == nil {
		err = c.client.Set(ctx, fullKey, data, c.ttl).Err()
	}
	if err != nil {
		c.errors.Add(1)
		c.log.Warnf("Cache: Failed to store %s: %v", fullKey, err)
	}
	return products, nil
}

// Invalidate retires every cached page.
func (c *SearchCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		c.errors.Add(1)
		return fmt.Errorf("cache invalidate error: %w", err)
	}
	c.invalidations.Add(1)
	return nil
}

func (c *SearchCache) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Errors:        c.errors.Load(),
		Invalidations: c.invalidations.Load(),
	}
}

func (c *SearchCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *SearchCache) Close() error {
	return c.client.Close()
}
