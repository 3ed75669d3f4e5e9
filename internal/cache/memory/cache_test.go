package memory

import (
	"sync"
	"testing"
	"time"
)

type link struct {
	Title string
	URL   string
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func TestCache_SetAndGet(t *testing.T) {
	cache := New[[]link]()
	defer cache.Stop()

	cache.Set("ошибка фн", []link{{Title: "Замена ФН", URL: "https://atol.ru/fn"}}, time.Minute)

	got, ok := cache.Get("ошибка фн")
	if !ok || len(got) != 1 || got[0].URL != "https://atol.ru/fn" {
		t.Errorf("Get() = %v, %v", got, ok)
	}

	if got, ok := cache.Get("касса"); ok || got != nil {
		t.Errorf("Get(missing) = %v, %v; want nil, false", got, ok)
	}
}

func TestCache_Expiry(t *testing.T) {
	clock := newClock()
	cache := New[int](WithClock(clock.Now))
	defer cache.Stop()

	cache.Set("k", 1, time.Hour)

	clock.Advance(59 * time.Minute)
	if _, ok := cache.Get("k"); !ok {
		t.Fatal("entry should live until ttl")
	}

	clock.Advance(time.Minute)
	if _, ok := cache.Get("k"); ok {
		t.Error("entry should expire exactly at ttl")
	}
	if cache.Len() != 0 {
		t.Errorf("Len() = %d, expired entry should be dropped on read", cache.Len())
	}
}

func TestCache_RemoveExpired(t *testing.T) {
	clock := newClock()
	cache := New[int](WithClock(clock.Now))
	defer cache.Stop()

	cache.Set("a", 1, time.Second)
	cache.Set("b", 2, time.Hour)
	clock.Advance(time.Minute)

	if n := cache.removeExpired(); n != 1 {
		t.Errorf("removeExpired() = %d, want 1", n)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestCache_JanitorRuns(t *testing.T) {
	cache := New[int](WithCleanupInterval(5 * time.Millisecond))
	defer cache.Stop()

	cache.Set("a", 1, time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for cache.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("janitor did not remove expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCache_MaxEntries(t *testing.T) {
	clock := newClock()
	cache := New[string](WithClock(clock.Now), WithMaxEntries(2))
	defer cache.Stop()

	cache.Set("short", "1", time.Minute)
	cache.Set("long", "2", time.Hour)
	cache.Set("long", "2b", time.Hour)
	if cache.Len() != 2 {
		t.Fatalf("overwrite should not evict, Len() = %d", cache.Len())
	}

	cache.Set("new", "3", time.Hour)

	if _, ok := cache.Get("short"); ok {
		t.Error("entry expiring first should be evicted")
	}
	if got, ok := cache.Get("long"); !ok || got != "2b" {
		t.Errorf("Get(long) = %q, %v", got, ok)
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
}

func TestCache_MaxEntries_EmptyKey(t *testing.T) {
	clock := newClock()
	cache := New[string](WithClock(clock.Now), WithMaxEntries(2))
	defer cache.Stop()

	cache.Set("", "пустой запрос", time.Minute)
	cache.Set("касса", "2", time.Hour)

	// обход map случайный, повторяем, чтобы пустой ключ встречался первым
	for i := 0; i < 20; i++ {
		cache.Set("new", "3", time.Hour)

		if _, ok := cache.Get(""); ok {
			t.Fatalf("iteration %d: entry with empty key expires first and should be evicted", i)
		}
		if _, ok := cache.Get("касса"); !ok {
			t.Fatalf("iteration %d: wrong entry evicted", i)
		}

		cache.Delete("new")
		cache.Set("", "пустой запрос", time.Minute)
	}
}

func TestCache_Delete(t *testing.T) {
	cache := New[string]()
	defer cache.Stop()

	cache.Set("k", "v", time.Hour)
	cache.Delete("k")
	cache.Delete("missing")

	if _, ok := cache.Get("k"); ok {
		t.Error("key should not exist after delete")
	}
}

func TestCache_StopTwice(t *testing.T) {
	cache := New[string]()
	cache.Stop()
	cache.Stop()

	cache.Set("k", "v", time.Hour)
	if _, ok := cache.Get("k"); !ok {
		t.Error("cache should still serve reads after Stop")
	}
}

func TestCache_Concurrent(t *testing.T) {
	cache := New[int](WithMaxEntries(8))
	defer cache.Stop()

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := string(rune('a' + (g*i)%16))
				cache.Set(key, i, time.Hour)
				cache.Get(key)
				if i%50 == 0 {
					cache.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if cache.Len() > 8 {
		t.Errorf("Len() = %d, want <= 8", cache.Len())
	}
}
