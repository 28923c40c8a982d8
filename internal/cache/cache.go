package cache

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/narravid/narravid-go/internal/port"
	"github.com/narravid/narravid-go/internal/uuid"
	"github.com/redis/go-redis/v9"
)

// Cache keeps resolved signed URLs in redis for the remainder of their TTL,
// so a restart or a second consumer does not burn resolver calls.
type Cache struct {
	client *redis.Client
}

// compile-time check: *Cache must satisfy port.URLCache
var _ port.URLCache = (*Cache)(nil)

func NewCache(addr, password string) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	return &Cache{client: rdb}
}

// GetSignedURL returns the cached URL for a record, or "" on a miss.
func (c *Cache) GetSignedURL(ctx context.Context, id uuid.UUID) (string, error) {
	val, err := c.client.Get(ctx, signedURLKey(id.String())).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil // cache miss
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

func (c *Cache) SetSignedURL(ctx context.Context, id uuid.UUID, url string, validUntil time.Time) {
	ttl := time.Until(validUntil)
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, signedURLKey(id.String()), url, ttl).Err(); err != nil {
		log.Printf("failed caching signed url for video #%s: %v", id, err)
	}
}

func (c *Cache) DeleteSignedURL(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Del(ctx, signedURLKey(id.String())).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}

func signedURLKey(id string) string {
	return "video:signed_url:" + id
}
