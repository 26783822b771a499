package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ddiaz-itx/ai-interviewer/internal/llm"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

const (
	llmPrefix    = "llmcache:"
	llmIndexKey  = llmPrefix + "index"
	llmHitsKey   = llmPrefix + "stats:hits"
	llmMissesKey = llmPrefix + "stats:misses"
)

// LLMCache is a Redis-backed llm.Cache shared by every API instance. Entries
// expire after ttl; once more than maxSize are live the oldest are evicted.
type LLMCache struct {
	rdb     *redis.Client
	ttl     time.Duration
	maxSize int64
	now     func() time.Time
}

func NewLLMCache(rdb *redis.Client, maxSize int, ttl time.Duration) *LLMCache {
	if maxSize <= 0 {
		maxSize = llm.DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = llm.DefaultCacheTTL
	}
	return &LLMCache{rdb: rdb, ttl: ttl, maxSize: int64(maxSize), now: time.Now}
}

func (c *LLMCache) Get(ctx context.Context, key string) (*llm.Response, bool, error) {
	raw, err := c.rdb.Get(ctx, llmPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.rdb.Incr(ctx, llmMissesKey)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached completion: %w", err)
	}

	var resp llm.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.rdb.Incr(ctx, llmMissesKey)
		return nil, false, fmt.Errorf("decode cached completion: %w", err)
	}
	c.rdb.Incr(ctx, llmHitsKey)
	return &resp, true, nil
}

func (c *LLMCache) Set(ctx context.Context, key string, resp *llm.Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode completion: %w", err)
	}

	now := c.now()
	_, err = c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, llmPrefix+key, raw, c.ttl)
		p.ZAdd(ctx, llmIndexKey, redis.Z{Score: float64(now.UnixNano()), Member: key})
		return nil
	})
	if err != nil {
		return fmt.Errorf("store completion: %w", err)
	}
	return c.evict(ctx, now)
}

// evict drops index entries past their ttl and, if still over capacity, the
// oldest remaining entries.
func (c *LLMCache) evict(ctx context.Context, now time.Time) error {
	cutoff := strconv.FormatInt(now.Add(-c.ttl).UnixNano(), 10)
	if err := c.rdb.ZRemRangeByScore(ctx, llmIndexKey, "-inf", "("+cutoff).Err(); err != nil {
		return fmt.Errorf("prune cache index: %w", err)
	}

	size, err := c.rdb.ZCard(ctx, llmIndexKey).Result()
	if err != nil {
		return fmt.Errorf("count cache entries: %w", err)
	}
	if size <= c.maxSize {
		return nil
	}

	oldest, err := c.rdb.ZPopMin(ctx, llmIndexKey, size-c.maxSize).Result()
	if err != nil {
		return fmt.Errorf("pop oldest cache entries: %w", err)
	}
	keys := make([]string, 0, len(oldest))
	for _, z := range oldest {
		if k, ok := z.Member.(string); ok {
			keys = append(keys, llmPrefix+k)
		}
	}
	if len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("evict cache entries: %w", err)
		}
	}
	return nil
}

func (c *LLMCache) Stats(ctx context.Context) (*model.CacheStats, error) {
	cutoff := strconv.FormatInt(c.now().Add(-c.ttl).UnixNano(), 10)
	if err := c.rdb.ZRemRangeByScore(ctx, llmIndexKey, "-inf", "("+cutoff).Err(); err != nil {
		return nil, fmt.Errorf("prune cache index: %w", err)
	}
	size, err := c.rdb.ZCard(ctx, llmIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("count cache entries: %w", err)
	}
	hits, err := c.counter(ctx, llmHitsKey)
	if err != nil {
		return nil, err
	}
	misses, err := c.counter(ctx, llmMissesKey)
	if err != nil {
		return nil, err
	}
	return &model.CacheStats{
		Size:    size,
		Hits:    hits,
		Misses:  misses,
		HitRate: model.HitRate(hits, misses),
	}, nil
}

// Clear removes every cached completion and resets the counters.
func (c *LLMCache) Clear(ctx context.Context) error {
	keys, err := c.rdb.ZRange(ctx, llmIndexKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("list cache entries: %w", err)
	}
	del := []string{llmIndexKey, llmHitsKey, llmMissesKey}
	for _, k := range keys {
		del = append(del, llmPrefix+k)
	}
	return c.rdb.Del(ctx, del...).Err()
}

func (c *LLMCache) counter(ctx context.Context, key string) (int64, error) {
	n, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", key, err)
	}
	return n, nil
}
