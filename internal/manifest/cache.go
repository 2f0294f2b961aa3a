package manifest

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Cache is a TTL-scoped store of fetched manifest documents. Expired
// entries report as misses on Get but stay in the store until Cleanup or
// Invalidate removes them; the underlying store runs no background
// janitor.
type Cache struct {
	store *gocache.Cache
}

// CacheStats summarizes the cache contents. TotalSizeBytes covers fresh
// entries; the sizes of expired rows are no longer reachable.
type CacheStats struct {
	TotalEntries   int
	FreshEntries   int
	ExpiredEntries int
	TotalSizeBytes int64
}

// cacheEntry pairs a document with the byte size of the payload it was
// parsed from.
type cacheEntry struct {
	doc  any
	size int64
}

// NewCache creates an empty manifest cache.
func NewCache() *Cache {
	// Cleanup interval 0 disables the janitor; expired rows are removed
	// only by Cleanup or Invalidate.
	return &Cache{store: gocache.New(gocache.NoExpiration, 0)}
}

// RegistryKey returns the cache key for a registry manifest.
func RegistryKey(registryName string) string {
	return "registry\x00" + registryName
}

// PluginKey returns the cache key for a plugin manifest. The manifest
// URL is part of the key so two registries referencing the same plugin
// name never collide.
func PluginKey(pluginName, manifestURL string) string {
	return "plugin\x00" + pluginName + "\x00" + manifestURL
}

// Get returns the cached document for key. Both absent and TTL-expired
// entries are misses; callers re-fetch on miss.
func (c *Cache) Get(key string) (any, bool) {
	entry, found := c.store.Get(key)
	if !found {
		return nil, false
	}
	return entry.(cacheEntry).doc, true
}

// Put stores a document under key with the given TTL.
func (c *Cache) Put(key string, doc any, size int64, ttl time.Duration) {
	c.store.Set(key, cacheEntry{doc: doc, size: size}, ttl)
}

// Invalidate removes a single entry, expired or not.
func (c *Cache) Invalidate(key string) {
	c.store.Delete(key)
}

// Cleanup removes all expired entries and returns how many were removed.
func (c *Cache) Cleanup() int {
	before := c.store.ItemCount()
	c.store.DeleteExpired()
	return before - c.store.ItemCount()
}

// Stats reports entry counts and the total payload size of fresh rows.
func (c *Cache) Stats() CacheStats {
	fresh := c.store.Items() // excludes expired rows
	total := c.store.ItemCount()

	stats := CacheStats{
		TotalEntries:   total,
		FreshEntries:   len(fresh),
		ExpiredEntries: total - len(fresh),
	}
	for _, item := range fresh {
		if entry, ok := item.Object.(cacheEntry); ok {
			stats.TotalSizeBytes += entry.size
		}
	}
	return stats
}
