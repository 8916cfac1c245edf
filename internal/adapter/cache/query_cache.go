// Package cache memoizes retrieval results for repeated standalone questions.
package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"ragchat/internal/domain"
	"ragchat/internal/port"
)

// QueryCache is a bounded LRU of search results with a per-entry TTL.
// Entries are only valid for the index they were computed against, so the
// cache must be purged whenever a different index is loaded.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	key     string
	results []domain.ScoredChunk
	expires time.Time
}

// Stats reports cache effectiveness.
type Stats struct {
	Size   int    `json:"size"`
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 128
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*list.Element, maxSize),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(query string, topK int) string {
	hash := sha256.Sum256([]byte(strconv.Itoa(topK) + "\x00" + query))
	return hex.EncodeToString(hash[:16])
}

func (c *QueryCache) Get(query string, topK int) ([]domain.ScoredChunk, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK)
	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	entry := el.Value.(*cacheEntry)
	if c.now().After(entry.expires) {
		c.order.Remove(el)
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(el)
	c.hits++
	return cloneResults(entry.results), true
}

func (c *QueryCache) Put(query string, topK int, results []domain.ScoredChunk) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK)
	entry := &cacheEntry{
		key:     key,
		results: cloneResults(results),
		expires: c.now().Add(c.ttl),
	}

	if el, ok := c.entries[key]; ok {
		el.Value = entry
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}

	c.entries[key] = c.order.PushFront(entry)
}

// Purge drops every entry.
func (c *QueryCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element, c.maxSize)
	c.order.Init()
}

func (c *QueryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Size: c.order.Len(), Hits: c.hits, Misses: c.misses}
}

func cloneResults(results []domain.ScoredChunk) []domain.ScoredChunk {
	if results == nil {
		return nil
	}
	return append([]domain.ScoredChunk(nil), results...)
}

// CachedRetriever serves repeated queries from a QueryCache. Errors are never cached.
type CachedRetriever struct {
	retriever port.Retriever
	cache     *QueryCache
}

func NewCachedRetriever(retriever port.Retriever, cache *QueryCache) *CachedRetriever {
	return &CachedRetriever{
		retriever: retriever,
		cache:     cache,
	}
}

func (r *CachedRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if results, hit := r.cache.Get(query, k); hit {
		return results, nil
	}

	results, err := r.retriever.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	r.cache.Put(query, k, results)
	return results, nil
}

func (r *CachedRetriever) Cache() *QueryCache {
	return r.cache
}
