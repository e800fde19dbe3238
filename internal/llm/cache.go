package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// cacheEntry represents a cached model response.
type cacheEntry struct {
	expiry   time.Time
	response Response
}

// responseCache provides thread-safe TTL caching for model responses.
type responseCache struct {
	entries  map[string]cacheEntry
	stopCh   chan struct{}
	ttl      time.Duration
	mu       sync.RWMutex
	stopOnce sync.Once
}

// newResponseCache creates a new cache with the specified TTL.
func newResponseCache(ttl time.Duration) *responseCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// get retrieves a response if it exists and hasn't expired.
func (c *responseCache) get(key string) (Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return Response{}, false
	}

	return entry.response, true
}

// set stores a response in the cache.
func (c *responseCache) set(key string, response Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		response: response,
		expiry:   time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *responseCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// size returns the number of entries in the cache.
func (c *responseCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *responseCache) close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

// CachedClient answers repeated text-only requests from memory.
// Requests carrying images always reach the provider.
type CachedClient struct {
	next  Client
	cache *responseCache
}

// WithCache wraps client with a response cache of the given TTL.
func WithCache(client Client, ttl time.Duration) *CachedClient {
	return &CachedClient{next: client, cache: newResponseCache(ttl)}
}

// Send returns a cached response when an identical request was answered recently.
func (c *CachedClient) Send(ctx context.Context, req Request) (Response, error) {
	if len(req.Images) > 0 {
		return c.next.Send(ctx, req)
	}

	key := cacheKey(req)
	if resp, ok := c.cache.get(key); ok {
		return resp, nil
	}

	resp, err := c.next.Send(ctx, req)
	if err != nil {
		return Response{}, err
	}
	c.cache.set(key, resp)
	return resp, nil
}

// Close stops the cleanup goroutine.
func (c *CachedClient) Close() {
	c.cache.close()
}

func cacheKey(req Request) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d\x00%g", req.Model, req.System, req.Prompt, req.MaxTokens, req.Temperature)
	return hex.EncodeToString(h.Sum(nil))
}
