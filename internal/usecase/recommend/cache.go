package recommend

import (
	"strings"
	"sync"
	"time"

	"github.com/mecanice/partsense/internal/domain"
)

// TTLCache is an in-process response cache with a fixed time-to-live.
// Expiry is absolute from the first write; a hit does not extend it.
type TTLCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	store map[string]cacheEntry
}

type cacheEntry struct {
	expiresAt time.Time
	value     *domain.RecommendationResponse
}

// NewTTLCache creates a cache where entries live for ttl.
func NewTTLCache(ttl time.Duration) *TTLCache {
	return &TTLCache{
		ttl:   ttl,
		now:   time.Now,
		store: make(map[string]cacheEntry),
	}
}

// Get returns the cached response for key, lazily evicting it when expired.
func (c *TTLCache) Get(key string) (*domain.RecommendationResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.store[key]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.store, key)
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key with expiry now+ttl.
func (c *TTLCache) Set(key string, value *domain.RecommendationResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.store[key] = cacheEntry{
		expiresAt: c.now().Add(c.ttl),
		value:     value,
	}
}

// BuildCacheKey derives a deterministic cache key from the user text and the
// known vehicle fields. Text and fields are lower-cased so equivalent
// requests share an entry.
func BuildCacheKey(userText string, fields domain.KnownFields) string {
	fields = fields.Normalized()
	parts := []string{
		strings.TrimSpace(userText),
		fields.Axle,
		fields.RearBrakeType,
		fields.Engine,
		fields.ABS,
	}
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return "rec:" + strings.Join(parts, ":")
}
