// Package cache provides an in-memory TTL cache with ETag support for the
// read API. Reconstructed games only change when they are reloaded, so
// responses are cached by URL.
package cache

import (
	"crypto/md5"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// TTL constants.
const (
	TTLGame  = 10 * time.Minute
	TTLPoint = 10 * time.Minute
)

// GameKey is the cache key for a game body. Every key belonging to the
// game, its points included, starts with it.
func GameKey(extGameID string) string {
	return "game:" + extGameID + ":"
}

// PointKey is the cache key for one point of a game.
func PointKey(extGameID string, sequence int) string {
	return GameKey(extGameID) + "point:" + strconv.Itoa(sequence)
}

type entry struct {
	data      []byte
	etag      string
	expiresAt time.Time
}

// Cache is a thread-safe in-memory TTL cache.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	enabled bool
	now     func() time.Time
	done    chan struct{}
	once    sync.Once
}

// New creates a new cache. Pass enabled=false to create a no-op cache.
func New(enabled bool) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		enabled: enabled,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if enabled {
		go c.evictLoop(5 * time.Minute)
	}
	return c
}

// Close stops the eviction goroutine.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.done) })
}

// Get retrieves a cached value. Returns data, etag, and whether the entry was found.
func (c *Cache) Get(key string) (data []byte, etag string, ok bool) {
	if !c.enabled {
		return nil, "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, exists := c.entries[key]
	if !exists || c.now().After(e.expiresAt) {
		return nil, "", false
	}
	return e.data, e.etag, true
}

// Set stores a value with a TTL and returns its ETag.
func (c *Cache) Set(key string, data []byte, ttl time.Duration) string {
	etag := ComputeETag(data)
	if !c.enabled {
		return etag
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{
		data:      data,
		etag:      etag,
		expiresAt: c.now().Add(ttl),
	}
	return etag
}

// Fetch returns the cached value for key, or calls load and caches its
// result. hit reports whether the value came from the cache. Load errors
// are not cached.
func (c *Cache) Fetch(key string, ttl time.Duration, load func() ([]byte, error)) (data []byte, etag string, hit bool, err error) {
	if data, etag, ok := c.Get(key); ok {
		return data, etag, true, nil
	}
	data, err = load()
	if err != nil {
		return nil, "", false, err
	}
	return data, c.Set(key, data, ttl), false, nil
}

// invalidatePrefix drops every entry whose key starts with prefix.
func (c *Cache) invalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// InvalidateGame drops a game and all of its points.
func (c *Cache) InvalidateGame(extGameID string) int {
	return c.invalidatePrefix(GameKey(extGameID))
}

// Stats returns cache statistics.
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	active := 0
	now := c.now()
	for _, e := range c.entries {
		if now.Before(e.expiresAt) {
			active++
		}
	}
	return map[string]interface{}{
		"enabled":      c.enabled,
		"total_keys":   len(c.entries),
		"active_keys":  active,
		"expired_keys": len(c.entries) - active,
	}
}

// evictLoop periodically removes expired entries until Close.
func (c *Cache) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evict()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// ComputeETag generates a weak ETag from response data using MD5.
func ComputeETag(data []byte) string {
	hash := md5.Sum(data)
	return fmt.Sprintf(`W/"%x"`, hash[:8])
}

// CheckETagMatch checks if an If-None-Match header matches the current ETag.
// The header may list several tags separated by commas.
func CheckETagMatch(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
