package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anillosguillen/catalog_api/internal/models"
)

const catalogPrefix = "catalog:"

// CatalogCache stores rendered storefront listings and ring details.
// All entries share one prefix so any admin write can drop them at once.
type CatalogCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewCatalogCache creates a new CatalogCache.
func NewCatalogCache(redis *RedisClient, ttl time.Duration) *CatalogCache {
	return &CatalogCache{redis: redis, ttl: ttl}
}

func (c *CatalogCache) keyList(sort string) string {
	return fmt.Sprintf("%slist:%s", catalogPrefix, sort)
}

func (c *CatalogCache) keyRing(slug string) string {
	return fmt.Sprintf("%sring:%s", catalogPrefix, slug)
}

// GetList returns the cached listing for a sort order. A miss returns
// (nil, nil).
func (c *CatalogCache) GetList(ctx context.Context, sort string) ([]models.Ring, error) {
	var rings []models.Ring
	ok, err := c.get(ctx, c.keyList(sort), &rings)
	if !ok {
		return nil, err
	}
	return rings, nil
}

// SetList caches a listing.
func (c *CatalogCache) SetList(ctx context.Context, sort string, rings []models.Ring) error {
	return c.set(ctx, c.keyList(sort), rings)
}

// GetRing returns a cached ring detail. A miss returns (nil, nil).
func (c *CatalogCache) GetRing(ctx context.Context, slug string) (*models.Ring, error) {
	var ring models.Ring
	ok, err := c.get(ctx, c.keyRing(slug), &ring)
	if !ok {
		return nil, err
	}
	return &ring, nil
}

// SetRing caches a ring detail.
func (c *CatalogCache) SetRing(ctx context.Context, ring *models.Ring) error {
	return c.set(ctx, c.keyRing(ring.Slug), ring)
}

// Invalidate drops every catalog entry.
func (c *CatalogCache) Invalidate(ctx context.Context) error {
	return c.redis.DeletePrefix(ctx, catalogPrefix)
}

func (c *CatalogCache) get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.redis.Get(ctx, key)
	if err != nil {
		if IsMiss(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (c *CatalogCache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.redis.Set(ctx, key, string(data), c.ttl)
}
