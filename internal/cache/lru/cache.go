package lru

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache - ограниченный по размеру LRU, у каждой записи свой TTL.
// Просроченная запись удаляется при чтении.
type Cache[V any] struct {
	cache *lru.Cache[string, entry[V]]
	now   func() time.Time
}

func New[V any](size int) (*Cache[V], error) {
	if size <= 0 {
		size = 256
	}
	c, err := lru.New[string, entry[V]](size)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{cache: c, now: time.Now}, nil
}

func (c *Cache[V]) Get(key string) (V, bool) {
	e, ok := c.cache.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(e.expiresAt) {
		c.cache.Remove(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.cache.Add(key, entry[V]{value: value, expiresAt: c.now().Add(ttl)})
}

func (c *Cache[V]) Delete(key string) {
	c.cache.Remove(key)
}

func (c *Cache[V]) Len() int {
	return c.cache.Len()
}

// Stop нужен для общего интерфейса, фоновых горутин нет
func (c *Cache[V]) Stop() {}
