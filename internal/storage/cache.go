// internal/storage/cache.go
package storage

import (
	"sort"
	"sync"
	"time"
)

// cacheEntry 缓存条目
type cacheEntry struct {
	data     []byte
	created  time.Time
	lastRead time.Time
}

// documentCache 文档内容的内存缓存，按过期时间和最近读取时间淘汰
type documentCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

func newDocumentCache(maxSize int, ttl time.Duration) *documentCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &documentCache{
		entries: make(map[string]*cacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *documentCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	now := c.now()
	if now.Sub(e.created) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	e.lastRead = now
	return e.data, true
}

func (c *documentCache) put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &cacheEntry{data: data, created: now, lastRead: now}
	if len(c.entries) > c.maxSize {
		// 淘汰 20%，至少一个
		c.evictLocked(max(1, c.maxSize/5))
	}
}

func (c *documentCache) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// sweep 清理过期条目
func (c *documentCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.created) > c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

func (c *documentCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked 按最近读取时间删除最久未读的条目
func (c *documentCache) evictLocked(count int) {
	type keyAge struct {
		key  string
		read time.Time
	}
	ages := make([]keyAge, 0, len(c.entries))
	for k, e := range c.entries {
		ages = append(ages, keyAge{k, e.lastRead})
	}
	sort.Slice(ages, func(i, j int) bool { return ages[i].read.Before(ages[j].read) })

	for i := 0; i < count && i < len(ages); i++ {
		delete(c.entries, ages[i].key)
	}
}
