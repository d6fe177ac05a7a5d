package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu          sync.RWMutex
	entries     map[string]map[string]memoryEntry
	generations map[string]uint64
	now         func() time.Time
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries:     make(map[string]map[string]memoryEntry),
		generations: make(map[string]uint64),
		now:         time.Now,
	}
}

func (c *MemoryCache) Generation(_ context.Context, companyCode string) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[companyCode], nil
}

func (c *MemoryCache) Get(_ context.Context, key Key) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key.CompanyCode][key.String()]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		c.mu.Lock()
		if current, ok := c.entries[key.CompanyCode][key.String()]; ok && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries[key.CompanyCode], key.String())
		}
		c.mu.Unlock()
		return nil, false, nil
	}

	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key Key, value []byte, ttl time.Duration, generation uint64) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generations[key.CompanyCode] != generation {
		return nil
	}

	company, ok := c.entries[key.CompanyCode]
	if !ok {
		company = make(map[string]memoryEntry)
		c.entries[key.CompanyCode] = company
	}
	company[key.String()] = memoryEntry{value: stored, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, companyCode string) error {
	c.mu.Lock()
	delete(c.entries, companyCode)
	c.generations[companyCode]++
	c.mu.Unlock()
	return nil
}

// Clear drops every entry. Generations keep counting so that in-flight
// computations are still discarded.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]map[string]memoryEntry)
	for company := range c.generations {
		c.generations[company]++
	}
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, company := range c.entries {
		n += len(company)
	}
	return n
}
