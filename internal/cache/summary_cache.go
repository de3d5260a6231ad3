// Package cache keeps derived read models in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

const (
	summaryKey    = "asset-tracker:stock-summary"
	generationKey = "asset-tracker:stock-summary:generation"
)

// Client is the subset of redis.Cmdable the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// SummaryCache stores the stock summary as JSON under a single key, tagged
// with the generation it was computed at. The generation key has no TTL.
type SummaryCache struct {
	client Client
	ttl    time.Duration
}

type entry struct {
	Generation int64                `json:"generation"`
	Summary    *domain.StockSummary `json:"summary"`
}

// NewSummaryCache returns a cache bound to client. A non-positive ttl keeps
// entries until they are invalidated.
func NewSummaryCache(client Client, ttl time.Duration) *SummaryCache {
	if ttl < 0 {
		ttl = 0
	}
	return &SummaryCache{client: client, ttl: ttl}
}

// Get returns the cached summary; ok is false on a miss or when the entry
// belongs to an older generation.
func (c *SummaryCache) Get(ctx context.Context) (*domain.StockSummary, bool, error) {
	values, err := c.client.MGet(ctx, generationKey, summaryKey).Result()
	if err != nil {
		return nil, false, err
	}
	if len(values) != 2 || values[1] == nil {
		return nil, false, nil
	}
	current, err := parseGeneration(values[0])
	if err != nil {
		return nil, false, err
	}
	raw, ok := values[1].(string)
	if !ok {
		return nil, false, fmt.Errorf("unexpected summary value %T", values[1])
	}
	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return nil, false, err
	}
	if e.Generation != current || e.Summary == nil {
		return nil, false, nil
	}
	return e.Summary, true, nil
}

// Generation returns the current generation, zero before the first invalidation.
func (c *SummaryCache) Generation(ctx context.Context) (int64, error) {
	raw, err := c.client.Get(ctx, generationKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return parseGeneration(raw)
}

// Set stores summary as computed at generation.
func (c *SummaryCache) Set(ctx context.Context, generation int64, summary *domain.StockSummary) error {
	raw, err := json.Marshal(entry{Generation: generation, Summary: summary})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey, raw, c.ttl).Err()
}

// Invalidate advances the generation and drops the cached summary.
func (c *SummaryCache) Invalidate(ctx context.Context) error {
	incrErr := c.client.Incr(ctx, generationKey).Err()
	return errors.Join(incrErr, c.client.Del(ctx, summaryKey).Err())
}

func parseGeneration(v interface{}) (int64, error) {
	switch g := v.(type) {
	case nil:
		return 0, nil
	case string:
		n, err := strconv.ParseInt(g, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid summary generation %q: %w", g, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected summary generation %T", v)
	}
}
