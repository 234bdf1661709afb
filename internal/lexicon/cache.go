package lexicon

import (
	"strings"
	"sync"
)

// CachedLookup wraps a Lookup with an in-memory LRU cache keyed by the
// lowercased word.
type CachedLookup struct {
	inner Lookup
	cache *lruCache
}

// NewCachedLookup creates a cache decorator around a lookup.
func NewCachedLookup(inner Lookup, maxEntries int) *CachedLookup {
	return &CachedLookup{
		inner: inner,
		cache: newLRUCache(maxEntries),
	}
}

func (c *CachedLookup) SensesOf(word string) []SenseID {
	key := strings.ToLower(word)
	if senses, ok := c.cache.get(key); ok {
		return senses
	}
	// The ontology never changes, so misses are cached too.
	senses := c.inner.SensesOf(word)
	c.cache.put(key, senses)
	return senses
}

// lruCache is a simple thread-safe LRU cache of sense lists.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []SenseID
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]SenseID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []SenseID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
