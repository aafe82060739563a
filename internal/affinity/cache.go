package affinity

import (
	"container/list"
	"crypto/sha256"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// DefaultCacheSize is the number of results kept before FIFO eviction.
const DefaultCacheSize = 1000

// ResultCache memoizes calculation results by canonical input key.
type ResultCache interface {
	Get(key string) (Result, bool)
	Put(key string, result Result)
	Clear()
	Stats() CacheStats
}

// CacheStats is a snapshot of the cache counters.
type CacheStats struct {
	Size    int     `json:"size"`
	MaxSize int     `json:"maxSize"`
	Hits    int     `json:"hits"`
	Misses  int     `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// Cache is a bounded FIFO result cache safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	order   *list.List
	hits    int
	misses  int
}

type cacheEntry struct {
	key    string
	result Result
}

// NewCache creates a cache holding up to maxSize results. Non-positive sizes
// fall back to DefaultCacheSize.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}

	return &Cache{
		maxSize: maxSize,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

func (c *Cache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return Result{}, false
	}

	c.hits++
	return elem.Value.(*cacheEntry).result.Clone(), true
}

// Put stores the result unless the key is already cached.
func (c *Cache) Put(key string, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		return
	}

	for c.order.Len() >= c.maxSize {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}

	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, result: result.Clone()})
}

// Clear drops every entry and resets the counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.hits = 0
	c.misses = 0
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{
		Size:    c.order.Len(),
		MaxSize: c.maxSize,
		Hits:    c.hits,
		Misses:  c.misses,
	}
	if total := c.hits + c.misses; total > 0 {
		stats.HitRate = float64(c.hits) / float64(total)
	}

	return stats
}

// cacheKey serializes a normalized input canonically: requirements keep their
// order, possessed skills and profamily ids are sorted.
func cacheKey(in input) string {
	var b strings.Builder

	b.WriteString("req:")
	for _, r := range in.requirements {
		b.WriteString(strconv.Quote(r.Skill))
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(r.Level))
		b.WriteByte(';')
	}

	b.WriteString("|has:")
	for _, skill := range slices.Sorted(maps.Keys(in.possessed)) {
		b.WriteString(strconv.Quote(skill))
		b.WriteByte('=')
		b.WriteString(strconv.Itoa(in.possessed[skill]))
		b.WriteByte(';')
	}

	b.WriteString("|profamily:")
	if in.options.ProfamilyID != nil {
		b.WriteString(strconv.Itoa(*in.options.ProfamilyID))
	} else {
		b.WriteByte('-')
	}

	b.WriteString("|accepts:")
	for _, id := range in.options.RequirementProfamilyIDs {
		b.WriteString(strconv.Itoa(id))
		b.WriteByte(',')
	}

	b.WriteString("|status:")
	b.WriteString(string(in.options.VerificationStatus))

	hashBytes := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", hashBytes[:])
}
