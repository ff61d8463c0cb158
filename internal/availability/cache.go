package availability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"appointment-service/internal/models"
	"appointment-service/internal/scheduling"
)

const keyPrefix = "availability"

// Cache decorates a resolver with a redis read-through cache. Redis failures
// are logged and fall through to the wrapped resolver.
type Cache struct {
	inner  scheduling.AvailabilityResolver
	client redis.Cmdable
	ttl    time.Duration
	log    *zap.Logger
}

// NewCache wraps inner with a cache whose entries expire after ttl.
func NewCache(inner scheduling.AvailabilityResolver, client redis.Cmdable, ttl time.Duration, log *zap.Logger) *Cache {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{inner: inner, client: client, ttl: ttl, log: log}
}

func cacheKey(doctorID string, day models.DayOfWeek) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, doctorID, day)
}

func (c *Cache) Availability(ctx context.Context, doctorID string, day time.Weekday) ([]models.AvailabilitySlot, error) {
	key := cacheKey(doctorID, models.DayOfWeekFrom(day))

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var slots []models.AvailabilitySlot
		if err := json.Unmarshal(data, &slots); err == nil {
			return slots, nil
		}
		c.log.Warn("discarding undecodable availability cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("availability cache read failed", zap.String("key", key), zap.Error(err))
	}

	slots, err := c.inner.Availability(ctx, doctorID, day)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(slots)
	if err != nil {
		return slots, nil
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn("availability cache write failed", zap.String("key", key), zap.Error(err))
	}
	return slots, nil
}

// Invalidate drops every cached weekday for doctorID.
func (c *Cache) Invalidate(ctx context.Context, doctorID string) error {
	keys := make([]string, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		keys = append(keys, cacheKey(doctorID, models.DayOfWeekFrom(d)))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidating availability cache: %w", err)
	}
	return nil
}

// Close releases the redis client when it owns a connection pool.
func (c *Cache) Close() error {
	if closer, ok := c.client.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// NewRedisClient parses a redis URL and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return client, nil
}
