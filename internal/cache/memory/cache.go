package memory

import (
	"sync"
	"time"
)

const DefaultCleanupInterval = 5 * time.Minute

type item[V any] struct {
	value     V
	expiresAt time.Time
}

type options struct {
	cleanupInterval time.Duration
	maxEntries      int
	now             func() time.Time
}

type Option func(*options)

func WithCleanupInterval(d time.Duration) Option {
	return func(o *options) { o.cleanupInterval = d }
}

// WithMaxEntries ограничивает число записей; при переполнении вытесняется та, что истекает раньше
func WithMaxEntries(n int) Option {
	return func(o *options) { o.maxEntries = n }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Cache - in-memory кеш ответов поиска ссылок с TTL на запись
type Cache[V any] struct {
	mu    sync.Mutex
	items map[string]item[V]
	opts  options

	stop     chan struct{}
	stopOnce sync.Once
}

func New[V any](opts ...Option) *Cache[V] {
	o := options{cleanupInterval: DefaultCleanupInterval, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cleanupInterval <= 0 {
		o.cleanupInterval = DefaultCleanupInterval
	}

	c := &Cache[V]{
		items: make(map[string]item[V]),
		opts:  o,
		stop:  make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.opts.now().Before(it.expiresAt) {
		delete(c.items, key)
		var zero V
		return zero, false
	}
	return it.value, true
}

func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.opts.maxEntries > 0 && len(c.items) >= c.opts.maxEntries {
		c.evictLocked()
	}
	c.items[key] = item[V]{value: value, expiresAt: c.opts.now().Add(ttl)}
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len включает просроченные записи, до которых еще не дошла очистка
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache[V]) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache[V]) janitor() {
	ticker := time.NewTicker(c.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *Cache[V]) removeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.opts.now()
	removed := 0
	for k, it := range c.items {
		if !now.Before(it.expiresAt) {
			delete(c.items, k)
			removed++
		}
	}
	return removed
}

func (c *Cache[V]) evictLocked() {
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for k, it := range c.items {
		if !found || it.expiresAt.Before(oldest) {
			victim, oldest, found = k, it.expiresAt, true
		}
	}
	if found {
		delete(c.items, victim)
	}
}
