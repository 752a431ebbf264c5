package catalog

import (
	"container/list"
	"sync"
)

// LRUCache is a thread-safe LRU cache of loaded catalogs, keyed by name.
// It is an explicit capability: callers construct it and hand it to a
// Registry, so nothing in the core ever touches process-global state.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	cache    map[string]*list.Element
	order    *list.List
}

type cacheEntry struct {
	name    string
	catalog *Catalog
}

// NewLRUCache creates a new LRU cache with the given capacity.
func NewLRUCache(capacity int) *LRUCache {
	return &LRUCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get retrieves a catalog from cache. Returns nil if not found. The cached
// catalog is shared, never copied; catalogs are immutable after load.
func (c *LRUCache) Get(name string) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.cache[name]
	if !exists {
		return nil
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).catalog
}

// Put adds a catalog to the cache, evicting the least recently used if full.
func (c *LRUCache) Put(cat *Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.cache[cat.Name]; exists {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).catalog = cat
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			entry := oldest.Value.(*cacheEntry)
			delete(c.cache, entry.name)
			c.order.Remove(oldest)
		}
	}

	elem := c.order.PushFront(&cacheEntry{name: cat.Name, catalog: cat})
	c.cache[cat.Name] = elem
}

// Invalidate drops one catalog from the cache. The next Get misses and the
// registry reloads from its source.
func (c *LRUCache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.cache[name]; exists {
		delete(c.cache, name)
		c.order.Remove(elem)
	}
}

// Len returns the number of cached catalogs.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
