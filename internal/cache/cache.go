package cache

import (
	"fmt"
	"time"

	"github.com/kitbuilder587/ikar-assistant/internal/cache/lru"
	"github.com/kitbuilder587/ikar-assistant/internal/cache/memory"
)

const (
	TypeMemory = "memory"
	TypeLRU    = "lru"
	TypeNone   = "none"
)

// Cache - кеш с TTL на запись
type Cache[V any] interface {
	Get(key string) (V, bool)
	Set(key string, value V, ttl time.Duration)
	Delete(key string)
	Len() int
	Stop()
}

func New[V any](cacheType string, size int) (Cache[V], error) {
	switch cacheType {
	case TypeMemory, "":
		return memory.New[V](memory.WithMaxEntries(size)), nil
	case TypeLRU:
		return lru.New[V](size)
	case TypeNone:
		return Nop[V]{}, nil
	default:
		return nil, fmt.Errorf("unknown cache type %q", cacheType)
	}
}

// Nop ничего не хранит
type Nop[V any] struct{}

func (Nop[V]) Get(string) (V, bool) {
	var zero V
	return zero, false
}

func (Nop[V]) Set(string, V, time.Duration) {}
func (Nop[V]) Delete(string)                 {}
func (Nop[V]) Len() int                      { return 0 }
func (Nop[V]) Stop()                         {}

var (
	_ Cache[string] = (*memory.Cache[string])(nil)
	_ Cache[string] = (*lru.Cache[string])(nil)
	_ Cache[string] = Nop[string]{}
)
