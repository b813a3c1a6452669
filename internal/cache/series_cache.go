// Package cache keeps fetched price series in Redis so repeated runs over
// the same window do not spend provider quota.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/ForceGold/models"
)

const defaultPrefix = "forcegold:series:"

// SeriesCacheEntry is the stored form of a series
type SeriesCacheEntry struct {
	Series   models.PriceSeries `json:"series"`
	CachedAt time.Time          `json:"cached_at"`
}

// Stats tracks cache performance
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
}

// HitRate returns hits as a percentage of lookups
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// SeriesCache is a read-through Redis cache in front of a SeriesProvider.
// Redis failures degrade to direct fetches.
type SeriesCache struct {
	inner  models.SeriesProvider
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger zerolog.Logger

	mu    sync.Mutex
	stats Stats
}

// NewSeriesCache wraps inner with a cache whose entries live for ttl
func NewSeriesCache(inner models.SeriesProvider, redisClient *redis.Client, ttl time.Duration) *SeriesCache {
	return &SeriesCache{
		inner:  inner,
		redis:  redisClient,
		ttl:    ttl,
		prefix: defaultPrefix,
		logger: log.With().Str("component", "series_cache").Logger(),
	}
}

// Name implements models.SeriesProvider
func (c *SeriesCache) Name() string {
	return c.inner.Name()
}

// Key builds the cache key for a request
func (c *SeriesCache) Key(req models.SeriesRequest) string {
	return fmt.Sprintf("%s%s:%s:%d:%d:%d:%d",
		c.prefix,
		c.inner.Name(),
		req.Symbol,
		int64(req.Interval/time.Second),
		req.Start.Unix(),
		req.End.Unix(),
		req.Limit,
	)
}

// FetchSeries implements models.SeriesProvider
func (c *SeriesCache) FetchSeries(ctx context.Context, req models.SeriesRequest) (models.PriceSeries, error) {
	key := c.Key(req)

	if series, ok := c.get(ctx, key); ok {
		return series, nil
	}

	series, err := c.inner.FetchSeries(ctx, req)
	if err != nil {
		return models.PriceSeries{}, err
	}
	// empty results are not cached so a later run retries the provider
	if series.Len() > 0 {
		c.set(ctx, key, series)
	}
	return series, nil
}

func (c *SeriesCache) get(ctx context.Context, key string) (models.PriceSeries, bool) {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.record(func(s *Stats) { s.Misses++ })
		return models.PriceSeries{}, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Redis error reading series")
		c.record(func(s *Stats) { s.Misses++; s.Errors++ })
		return models.PriceSeries{}, false
	}

	var entry SeriesCacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Error deserializing cached series")
		c.record(func(s *Stats) { s.Misses++; s.Errors++ })
		return models.PriceSeries{}, false
	}

	c.record(func(s *Stats) { s.Hits++ })
	c.logger.Debug().Str("key", key).Int("points", entry.Series.Len()).Time("cached_at", entry.CachedAt).Msg("Cache hit")
	return entry.Series, true
}

func (c *SeriesCache) set(ctx context.Context, key string, series models.PriceSeries) {
	data, err := json.Marshal(SeriesCacheEntry{Series: series, CachedAt: time.Now().UTC()})
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Error serializing series")
		return
	}

	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Redis error storing series")
		c.record(func(s *Stats) { s.Errors++ })
		return
	}
	c.record(func(s *Stats) { s.Sets++ })
}

func (c *SeriesCache) record(f func(*Stats)) {
	c.mu.Lock()
	f(&c.stats)
	c.mu.Unlock()
}

// GetStats returns current cache statistics
func (c *SeriesCache) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// LogStats logs current cache performance statistics
func (c *SeriesCache) LogStats() {
	stats := c.GetStats()
	c.logger.Info().
		Int64("hits", stats.Hits).
		Int64("misses", stats.Misses).
		Int64("sets", stats.Sets).
		Int64("errors", stats.Errors).
		Float64("hit_rate", stats.HitRate()).
		Msg("Series cache stats")
}

// Clear removes every cached series from client, whichever provider stored it
func Clear(ctx context.Context, client *redis.Client) (int, error) {
	var keys []string
	iter := client.Scan(ctx, 0, defaultPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("error scanning cache keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := client.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("error clearing cache: %w", err)
	}
	return len(keys), nil
}
