package orders

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/internal/backend"
	pkgredis "github.com/angelmondragon/storefront/pkg/redis"
)

// ProductCache keeps product detail by id across renders.
type ProductCache interface {
	Get(ctx context.Context, id int64) (backend.Product, bool)
	Put(ctx context.Context, p backend.Product)
}

type memoryEntry struct {
	product backend.Product
	expires time.Time
}

// MemoryProductCache is a process-local ProductCache. A zero TTL never
// expires entries.
type MemoryProductCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[int64]memoryEntry
}

func NewMemoryProductCache(ttl time.Duration) *MemoryProductCache {
	return &MemoryProductCache{ttl: ttl, now: time.Now, entries: map[int64]memoryEntry{}}
}

func (c *MemoryProductCache) Get(_ context.Context, id int64) (backend.Product, bool) {
	c.mu.RLock()
	entry, ok := c.entries[id]
	c.mu.RUnlock()
	if !ok {
		return backend.Product{}, false
	}
	if !entry.expires.IsZero() && !c.now().Before(entry.expires) {
		c.mu.Lock()
		delete(c.entries, id)
		c.mu.Unlock()
		return backend.Product{}, false
	}
	return entry.product, true
}

func (c *MemoryProductCache) Put(_ context.Context, p backend.Product) {
	entry := memoryEntry{product: p}
	if c.ttl > 0 {
		entry.expires = c.now().Add(c.ttl)
	}
	c.mu.Lock()
	c.entries[p.ID] = entry
	c.mu.Unlock()
}

type productKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	ProductKey(productID int64) string
}

// RedisProductCache shares product detail between CLI runs under the
// sf:product: namespace. Cache errors read as misses.
type RedisProductCache struct {
	kv  productKV
	ttl time.Duration
}

func NewRedisProductCache(client *pkgredis.Client, ttl time.Duration) *RedisProductCache {
	return &RedisProductCache{kv: client, ttl: ttl}
}

func (c *RedisProductCache) Get(ctx context.Context, id int64) (backend.Product, bool) {
	raw, err := c.kv.Get(ctx, c.kv.ProductKey(id))
	if err != nil {
		return backend.Product{}, false
	}
	var p backend.Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return backend.Product{}, false
	}
	return p, true
}

func (c *RedisProductCache) Put(ctx context.Context, p backend.Product) {
	payload, err := json.Marshal(p)
	if err != nil {
		return
	}
	_ = c.kv.Set(ctx, c.kv.ProductKey(p.ID), string(payload), c.ttl)
}
