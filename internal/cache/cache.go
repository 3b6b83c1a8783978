package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache TTLs per resource. Task-shaped data changes often and gets short
// TTLs; categories and templates are near-static.
const (
	TasksTTL      = 2 * time.Minute
	TodosTTL      = 2 * time.Minute
	CategoriesTTL = 10 * time.Minute
	TemplatesTTL  = 10 * time.Minute
	AnalyticsTTL  = 5 * time.Minute
	CalendarTTL   = 1 * time.Minute
)

// ErrMiss is returned when a key is absent or the cache is disabled.
var ErrMiss = errors.New("cache miss")

// Cache is a JSON read-through cache on Redis. A nil client disables it:
// every Get is a miss and every Set is a no-op, so callers never branch on
// availability.
type Cache struct {
	client *redis.Client
	log    *zap.Logger
}

// New connects to Redis and verifies connectivity. An empty URL returns a
// disabled cache rather than an error.
func New(redisURL string, log *zap.Logger) (*Cache, error) {
	if redisURL == "" {
		return &Cache{log: log}, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, log: log}, nil
}

// Disabled creates a cache that never stores anything.
func Disabled(log *zap.Logger) *Cache {
	return &Cache{log: log}
}

// Enabled reports whether a Redis backend is connected.
func (c *Cache) Enabled() bool {
	return c.client != nil
}

// Client exposes the underlying Redis client for components that share the
// connection, such as the rate limiter store. Nil when disabled.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Ping checks if Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	if c.client == nil {
		return errors.New("cache disabled")
	}
	return c.client.Ping(ctx).Err()
}

// Key builds a namespaced cache key: "ww:<userID>:<resource>[:parts...]".
func Key(userID uuid.UUID, resource string, parts ...string) string {
	segments := append([]string{"ww", userID.String(), resource}, parts...)
	return strings.Join(segments, ":")
}

// GetJSON loads a key and unmarshals it into dest. Redis errors are treated
// as misses so a cache outage never fails a request.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) error {
	if c.client == nil {
		return ErrMiss
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrMiss
	}
	if err != nil {
		c.log.Warn("cache_get_failed", zap.String("key", key), zap.Error(err))
		return ErrMiss
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("cache_decode_failed", zap.String("key", key), zap.Error(err))
		return ErrMiss
	}
	return nil
}

// SetJSON marshals value and stores it with the given TTL. Failures are
// logged and swallowed.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if c.client == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache_encode_failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.log.Warn("cache_set_failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate deletes every key for one of the user's resources. Any write to
// a resource calls this so readers never see stale entries past a mutation.
func (c *Cache) Invalidate(ctx context.Context, userID uuid.UUID, resource string) {
	if c.client == nil {
		return
	}

	pattern := Key(userID, resource) + "*"
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn("cache_scan_failed", zap.String("pattern", pattern), zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("cache_invalidate_failed", zap.String("pattern", pattern), zap.Error(err))
	}
}
