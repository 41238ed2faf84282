package llmfabric

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"wrenchbot/internal/config"
	"wrenchbot/internal/types"
)

// CacheEntry is a semantic-cache value: the response text plus an optional
// opaque handle to a reusable KV artefact (spec.md §3).
type CacheEntry struct {
	ResponseText  string
	KVArtifact    any
}

// SemanticCache is the content-addressed cache contract used by
// CachedCallLLM. Implementations may be in-memory or backed by durable
// storage (spec.md §9 Open Question: cache locality).
type SemanticCache interface {
	Get(fingerprint string) (CacheEntry, bool)
	Put(fingerprint string, entry CacheEntry)
	PrefixLookup(prefixFingerprint string) (any, bool)
	PrefixPut(prefixFingerprint string, artifact any)
	HitCount() int
}

// Fingerprint returns the SHA-256 hex digest of the canonical prompt string
// (spec.md §3: "keyed by SHA-256 of the canonical prompt string").
func Fingerprint(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

// PrefixFingerprint hashes the first n tokens (whitespace-split) of prompt,
// the orthogonal prefix-cache key (spec.md §3, default n=50).
func PrefixFingerprint(prompt string, n int) string {
	tokens := strings.Fields(prompt)
	if len(tokens) > n {
		tokens = tokens[:n]
	}
	return Fingerprint(strings.Join(tokens, " "))
}

// InMemoryCache is an LRU-bounded SemanticCache, single-flight-guarded so at
// most one inflight computation exists per fingerprint (spec.md §4.4 point
// 4). Single-flight is process-local only; it does not coordinate across
// separate processes sharing the same cache directory.
type InMemoryCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element

	prefixMu    sync.Mutex
	prefixItems map[string]any

	hits  int
	group singleflight.Group
}

type cacheItem struct {
	key   string
	entry CacheEntry
}

// NewInMemoryCache builds a cache bounded to capacity entries; a zero or
// negative capacity falls back to 128 entries, so the cache is never unbounded.
func NewInMemoryCache(capacity int) *InMemoryCache {
	if capacity <= 0 {
		capacity = 128
	}
	return &InMemoryCache{
		capacity:    capacity,
		order:       list.New(),
		items:       make(map[string]*list.Element),
		prefixItems: make(map[string]any),
	}
}

// NewSemanticCache picks the cache implementation from cfg: a sqlite-backed
// store when SqliteCachePath is set, otherwise an in-memory LRU bounded by
// CacheCapacity.
func NewSemanticCache(cfg config.LLMConfig) (SemanticCache, error) {
	if cfg.SqliteCachePath == "" {
		return NewInMemoryCache(cfg.CacheCapacity), nil
	}
	c, err := NewSQLiteCache(cfg.SqliteCachePath)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *InMemoryCache) Get(fingerprint string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[fingerprint]
	if !ok {
		return CacheEntry{}, false
	}
	c.order.MoveToFront(elem)
	c.hits++
	return elem.Value.(*cacheItem).entry, true
}

func (c *InMemoryCache) Put(fingerprint string, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[fingerprint]; ok {
		elem.Value.(*cacheItem).entry = entry
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheItem{key: fingerprint, entry: entry})
	c.items[fingerprint] = elem

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheItem).key)
	}
}

func (c *InMemoryCache) PrefixLookup(prefixFingerprint string) (any, bool) {
	c.prefixMu.Lock()
	defer c.prefixMu.Unlock()
	v, ok := c.prefixItems[prefixFingerprint]
	return v, ok
}

func (c *InMemoryCache) PrefixPut(prefixFingerprint string, artifact any) {
	c.prefixMu.Lock()
	defer c.prefixMu.Unlock()
	c.prefixItems[prefixFingerprint] = artifact
}

func (c *InMemoryCache) HitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

// CachedResult wraps Result with whether the value came from cache.
type CachedResult struct {
	Result
}

// CachedCallLLM implements the semantic-cache wrapper of spec.md §4.4:
// look up by prompt fingerprint; on miss, perform a single-flight-guarded
// call through CallLLMWithRetry; on success, store the response (and,
// if a prefix of the prompt is novel, record a prefix-cache artefact for
// reuse by returnKV callers).
func CachedCallLLM(ctx context.Context, cache SemanticCache, client types.LLMClient, methodName string, promptData map[string]any, cfg config.LLMConfig, summary string, returnKV bool) Result {
	prompt, _ := promptData["prompt"].(string)
	fingerprint := Fingerprint(prompt)

	if entry, ok := cache.Get(fingerprint); ok {
		return Result{Success: true, Response: map[string]any{"response": entry.ResponseText}, Cached: true}
	}

	group, ok := cache.(*InMemoryCache)
	doCall := func() (any, error) {
		result := CallLLMWithRetry(ctx, client, methodName, promptData, cfg, nil, summary)
		return result, nil
	}

	var raw any
	var err error
	if ok {
		raw, err, _ = group.group.Do(fingerprint, doCall)
	} else {
		raw, err = doCall()
	}
	if err != nil {
		return Result{Success: false, Error: err.Error()}
	}

	result := raw.(Result)
	if result.Success {
		respText, _ := result.Response["response"].(string)
		var kvArtifact any
		if returnKV {
			kvArtifact = struct{ Fingerprint string }{Fingerprint: fingerprint}
		}
		cache.Put(fingerprint, CacheEntry{ResponseText: respText, KVArtifact: kvArtifact})

		prefixTokens := cfg.PrefixCacheTokens
		if prefixTokens <= 0 {
			prefixTokens = 50
		}
		prefixFP := PrefixFingerprint(prompt, prefixTokens)
		if _, exists := cache.PrefixLookup(prefixFP); !exists {
			cache.PrefixPut(prefixFP, kvArtifact)
		}
	}
	return result
}
