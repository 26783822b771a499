package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ddiaz-itx/ai-interviewer/internal/metrics"
	"github.com/ddiaz-itx/ai-interviewer/pkg/model"
)

const (
	DefaultCacheSize = 1000
	DefaultCacheTTL  = time.Hour
)

// Cache stores completions for deterministic requests.
type Cache interface {
	Get(ctx context.Context, key string) (*Response, bool, error)
	Set(ctx context.Context, key string, resp *Response) error
	Stats(ctx context.Context) (*model.CacheStats, error)
}

// CacheKey derives a stable key from everything that shapes the completion.
func CacheKey(req Request, modelName string) string {
	b, _ := json.Marshal(struct {
		Agent       string  `json:"agent"`
		Model       string  `json:"model"`
		System      string  `json:"system"`
		Prompt      string  `json:"prompt"`
		Temperature float32 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		JSON        bool    `json:"json"`
	}{req.Agent, modelName, req.System, req.Prompt, req.Temperature, req.MaxTokens, req.JSON})
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// WithCache serves temperature-0 requests from cache. Cache failures are
// logged and never fail the call.
func WithCache(cache Cache, logger *zap.Logger) Middleware {
	return func(next Client) Client {
		return wrap(next, func(ctx context.Context, req Request) (*Response, error) {
			if req.Temperature != 0 {
				return next.Complete(ctx, req)
			}

			key := CacheKey(req, next.Model())
			hit, ok, err := cache.Get(ctx, key)
			if err != nil {
				logger.Sugar().Warnw("llm cache lookup failed", "agent", req.Agent, "err", err)
			}
			metrics.ObserveCacheLookup(ok)
			if ok {
				out := *hit
				out.Cached = true
				return &out, nil
			}

			resp, err := next.Complete(ctx, req)
			if err != nil {
				return nil, err
			}
			if err := cache.Set(ctx, key, resp); err != nil {
				logger.Sugar().Warnw("llm cache store failed", "agent", req.Agent, "err", err)
			}
			return resp, nil
		})
	}
}

type cacheEntry struct {
	resp    Response
	expires time.Time
}

// MemoryCache is a bounded in-process Cache. When full, the oldest entry is
// evicted.
type MemoryCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
	order   []string
	hits    int64
	misses  int64
}

func NewMemoryCache(maxSize int, ttl time.Duration) *MemoryCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*Response, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && !c.now().Before(e.expires) {
		c.remove(key)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false, nil
	}
	c.hits++
	resp := e.resp
	return &resp, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, resp *Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.remove(key)
	}
	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		c.remove(c.order[0])
	}
	c.entries[key] = cacheEntry{resp: *resp, expires: c.now().Add(c.ttl)}
	c.order = append(c.order, key)
	return nil
}

func (c *MemoryCache) Stats(_ context.Context) (*model.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &model.CacheStats{
		Size:    int64(len(c.entries)),
		Hits:    c.hits,
		Misses:  c.misses,
		HitRate: model.HitRate(c.hits, c.misses),
	}, nil
}

// Clear drops all entries and resets the counters.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	c.order = nil
	c.hits, c.misses = 0, 0
}

func (c *MemoryCache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
