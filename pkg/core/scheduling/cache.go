package scheduling

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dineshxr/submithunt/pkg/db"
)

// availabilityTTL matches the submission form's poll cadence, so a
// cached count is never staler than one poll interval
const availabilityTTL = 10 * time.Second

// CachedDateCounts decorates a DateCountStore with a short-lived redis
// cache. Cache failures degrade silently to the underlying store; the
// fallback path is deliberately left uncached so it stays an
// independent second opinion.
type CachedDateCounts struct {
	inner  db.DateCountStore
	client *redis.Client
	logger *zap.Logger
}

// NewCachedDateCounts wraps store with a redis availability cache
func NewCachedDateCounts(inner db.DateCountStore, client *redis.Client, logger *zap.Logger) *CachedDateCounts {
	return &CachedDateCounts{
		inner:  inner,
		client: client,
		logger: logger,
	}
}

// GetDateCounts serves counts from redis when fresh, otherwise queries
// the underlying store and caches the result
func (c *CachedDateCounts) GetDateCounts(ctx context.Context, date string) (db.DateCounts, error) {
	key := "availability:" + date

	if raw, err := c.client.Get(ctx, key).Result(); err == nil {
		var counts db.DateCounts
		if err := json.Unmarshal([]byte(raw), &counts); err == nil {
			return counts, nil
		}
	} else if err != redis.Nil {
		c.logger.Debug("Availability cache read failed",
			zap.String("date", date),
			zap.Error(err))
	}

	counts, err := c.inner.GetDateCounts(ctx, date)
	if err != nil {
		return counts, err
	}

	if raw, err := json.Marshal(counts); err == nil {
		if err := c.client.Set(ctx, key, raw, availabilityTTL).Err(); err != nil {
			c.logger.Debug("Availability cache write failed",
				zap.String("date", date),
				zap.Error(err))
		}
	}

	return counts, nil
}

// CountByDateFallback passes straight through to the underlying store
func (c *CachedDateCounts) CountByDateFallback(ctx context.Context, date string) (db.DateCounts, error) {
	return c.inner.CountByDateFallback(ctx, date)
}
