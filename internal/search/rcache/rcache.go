// Package rcache implements the ResultCache: a Redis-backed cache of
// search payloads keyed by a hash of the normalized query, filters and
// limit. Grounded on spec.md §4.12 and the robots/anomaly packages'
// Redis-best-effort idiom (read failures are misses, write failures are
// logged not raised).
package rcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/corvuscrawl/seeker/internal/search/model"
)

// cacheKeyInput is the canonical shape hashed into a cache key. Go's
// encoding/json marshals struct fields in declaration order, so the encoded
// form, and with it the key, is deterministic for a given input. The query,
// the filter fields and the limit sit flat in one object in the order
// declared below; keys are not sorted and filters are not nested.
type cacheKeyInput struct {
	Query         string     `json:"q"`
	Category      string     `json:"category"`
	Domain        string     `json:"domain"`
	DateFrom      *time.Time `json:"date_from"`
	DateTo        *time.Time `json:"date_to"`
	IncludeImages bool       `json:"include_images"`
	Limit         int        `json:"limit"`
}

// Cache is a Redis-backed ResultCache.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
	log   zerolog.Logger
}

// New creates a Cache over redisClient with the given TTL.
func New(redisClient *redis.Client, ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{redis: redisClient, ttl: ttl, log: log.With().Str("component", "result_cache").Logger()}
}

func key(normalizedQuery string, filters model.Filters, limit int) string {
	input := cacheKeyInput{
		Query:         normalizedQuery,
		Category:      filters.Category,
		Domain:        filters.Domain,
		DateFrom:      filters.DateFrom,
		DateTo:        filters.DateTo,
		IncludeImages: filters.IncludeImages,
		Limit:         limit,
	}
	data, _ := json.Marshal(input)
	sum := sha256.Sum256(data)
	return "search:" + hex.EncodeToString(sum[:])
}

// Get returns a cached payload, or false if absent, unreadable, or
// malformed.
func (c *Cache) Get(ctx context.Context, normalizedQuery string, filters model.Filters, limit int) (model.Payload, bool) {
	raw, err := c.redis.Get(ctx, key(normalizedQuery, filters, limit)).Result()
	if err != nil {
		return model.Payload{}, false
	}
	var payload model.Payload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		c.log.Warn().Err(err).Msg("cached payload failed to deserialize, treating as miss")
		return model.Payload{}, false
	}
	return payload, true
}

// Put stores payload under the key derived from normalizedQuery, filters
// and limit. Write failures are logged, never raised.
func (c *Cache) Put(ctx context.Context, normalizedQuery string, filters model.Filters, limit int, payload model.Payload) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.log.Error().Err(err).Msg("failed to serialize payload for caching")
		return
	}
	if err := c.redis.Set(ctx, key(normalizedQuery, filters, limit), data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Msg("failed to write result cache")
	}
}
