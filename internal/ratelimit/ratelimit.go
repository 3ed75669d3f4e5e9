package ratelimit

import (
	"sync"
	"time"
)

const (
	defaultLimit  = 10
	defaultWindow = time.Minute
	sweepInterval = 5 * time.Minute
)

type Config struct {
	RequestsPerMinute int
	// Window по умолчанию минута
	Window time.Duration
}

// Decision - итог одной попытки
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter - скользящее окно запросов на ключ (чат, пользователь)
type Limiter[K comparable] struct {
	mu     sync.Mutex
	hits   map[K][]time.Time
	limit  int
	window time.Duration
	now    func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func New[K comparable](cfg Config) *Limiter[K] {
	l := &Limiter[K]{
		hits:   make(map[K][]time.Time),
		limit:  cfg.RequestsPerMinute,
		window: cfg.Window,
		now:    time.Now,
		stop:   make(chan struct{}),
	}
	if l.limit <= 0 {
		l.limit = defaultLimit
	}
	if l.window <= 0 {
		l.window = defaultWindow
	}
	go l.sweep(sweepInterval)
	return l
}

func (l *Limiter[K]) Allow(key K) bool {
	return l.Reserve(key).Allowed
}

// Reserve занимает слот, если он есть. Отказ слот не расходует.
func (l *Limiter[K]) Reserve(key K) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	ts := l.trim(key, now)

	if len(ts) >= l.limit {
		l.hits[key] = ts
		// времена идут по возрастанию, слот освободит самое старое
		return Decision{RetryAfter: ts[0].Add(l.window).Sub(now)}
	}

	l.hits[key] = append(ts, now)
	return Decision{Allowed: true, Remaining: l.limit - len(ts) - 1}
}

func (l *Limiter[K]) Remaining(key K) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rem := l.limit - len(l.trim(key, l.now())); rem > 0 {
		return rem
	}
	return 0
}

func (l *Limiter[K]) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// trim вызывается под мьютексом
func (l *Limiter[K]) trim(key K, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	ts := l.hits[key]
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	return ts[i:]
}

func (l *Limiter[K]) sweep(interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-tick.C:
			l.removeStale()
		}
	}
}

func (l *Limiter[K]) removeStale() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key := range l.hits {
		if ts := l.trim(key, now); len(ts) == 0 {
			delete(l.hits, key)
		} else {
			l.hits[key] = ts
		}
	}
}
