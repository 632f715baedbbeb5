package offline

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// cacheStoreName is the logical name of the persisted cache blob.
const cacheStoreName = "offline_cache"

// DefaultTTL is the validity window applied by Put.
const DefaultTTL = time.Hour

// cacheEntry is the persisted wire format of one cached value.
type cacheEntry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // stored-at, unix ms
	TTL       int64           `json:"ttl"`       // validity window, ms
}

// Cache is a key→value map with per-entry time-to-live, persisted
// encrypted as one blob. Expiry is enforced on read: an expired entry
// behaves as a miss and is evicted as a side effect of the lookup.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry
	store      *SecureStore
	defaultTTL time.Duration
	log        *slog.Logger

	now func() time.Time // test seam
}

// NewCache loads any persisted cache for the store's scope; corrupt
// state resets to empty. A zero defaultTTL means DefaultTTL.
func NewCache(ctx context.Context, store *SecureStore, defaultTTL time.Duration, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	c := &Cache{
		entries:    make(map[string]cacheEntry),
		store:      store,
		defaultTTL: defaultTTL,
		log:        log,
		now:        time.Now,
	}
	if _, err := store.Load(ctx, cacheStoreName, &c.entries); err != nil {
		log.Warn("cache load failed, starting empty", "err", err)
		c.entries = make(map[string]cacheEntry)
	}
	if c.entries == nil {
		c.entries = make(map[string]cacheEntry)
	}
	return c
}

// Put stores a value under the default TTL.
func (c *Cache) Put(ctx context.Context, key string, value any) error {
	return c.PutTTL(ctx, key, value, c.defaultTTL)
}

// PutTTL stores a value with an explicit TTL. A zero or negative TTL is
// already elapsed: the very next read of the key is a miss.
func (c *Cache) PutTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		Data:      raw,
		Timestamp: c.now().UnixMilli(),
		TTL:       ttl.Milliseconds(),
	}
	if err := c.persistLocked(ctx); err != nil {
		c.log.Error("cache persist failed, entry kept in memory", "key", key, "err", err)
		return err
	}
	return nil
}

// Get returns the cached value, or a miss if the key is absent or
// expired. An expired entry is removed and the pruned map persisted
// before the miss is reported.
func (c *Cache) Get(ctx context.Context, key string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if e.TTL <= 0 || c.now().UnixMilli()-e.Timestamp > e.TTL {
		delete(c.entries, key)
		if err := c.persistLocked(ctx); err != nil {
			c.log.Error("cache persist failed after expiry", "key", key, "err", err)
		}
		return nil, false
	}
	return e.Data, true
}

// Evict removes one key and persists.
func (c *Cache) Evict(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return c.persistLocked(ctx)
}

// Clear empties the cache and deletes the persisted key outright, same
// logout-wipe rationale as the queue. Idempotent.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	return c.store.Wipe(ctx, cacheStoreName)
}

// Len returns the number of entries, expired or not, currently held.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) persistLocked(ctx context.Context) error {
	return c.store.Save(ctx, cacheStoreName, c.entries)
}
