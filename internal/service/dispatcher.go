package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
	"github.com/kitbuilder587/ikar-assistant/internal/metrics"
)

// Pending - результат фонового поиска, ещё не принятый циклом оболочки
type Pending struct {
	Key     string
	Token   uint64
	Outcome *domain.SearchOutcome
	Err     error
}

// Delivery - принятый результат. RecordErr заполнен, если не удалось записать историю.
type Delivery struct {
	Key       string
	Outcome   *domain.SearchOutcome
	Entry     *domain.HistoryEntry
	Err       error
	RecordErr error
}

// Dispatcher запускает сборку ответа в фоне и отдаёт результаты через Pending().
// Запись в историю и показ делает цикл оболочки через Accept, поэтому состояние оболочки
// меняется только из одной горутины.
type Dispatcher struct {
	svc     SearchService
	seq     *Sequencer
	logger  *zap.Logger
	metrics *metrics.Metrics

	pending chan Pending
	done    chan struct{}

	mu      sync.Mutex
	cancels map[string]inflight
	closed  bool
	wg      sync.WaitGroup
}

type inflight struct {
	token  uint64
	cancel context.CancelFunc
}

func NewDispatcher(svc SearchService, logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		svc:     svc,
		seq:     NewSequencer(),
		logger:  logger,
		metrics: m,
		pending: make(chan Pending, 16),
		done:    make(chan struct{}),
		cancels: make(map[string]inflight),
	}
}

func (d *Dispatcher) Pending() <-chan Pending {
	return d.pending
}

// Submit проверяет запрос и запускает сборку ответа. Предыдущий незавершённый поиск
// по тому же ключу отменяется, его результат не будет доставлен.
func (d *Dispatcher) Submit(ctx context.Context, key, query string) (uint64, error) {
	req := domain.SearchRequest{Query: query}
	if err := req.Validate(); err != nil {
		return 0, err
	}
	req.Sanitize()

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return 0, context.Canceled
	}

	token := d.seq.Issue(key)
	if prev, ok := d.cancels[key]; ok {
		prev.cancel()
	}
	wctx, cancel := context.WithCancel(ctx)
	d.cancels[key] = inflight{token: token, cancel: cancel}
	d.wg.Add(1)
	d.mu.Unlock()

	d.logger.Debug("search submitted", zap.String("key", key), zap.Uint64("token", token))

	go func() {
		defer d.wg.Done()
		defer cancel()

		outcome, err := d.svc.Compose(wctx, req)
		p := Pending{Key: key, Token: token, Outcome: outcome, Err: err}

		select {
		case d.pending <- p:
		case <-d.done:
		case <-ctx.Done():
		}
	}()

	return token, nil
}

// Accept вызывается из цикла оболочки. Устаревший результат отбрасывается (false).
// Актуальный записывается в историю и возвращается ровно один раз.
func (d *Dispatcher) Accept(ctx context.Context, p Pending) (*Delivery, bool) {
	if !d.seq.Complete(p.Key, p.Token) {
		d.logger.Debug("stale result dropped", zap.String("key", p.Key), zap.Uint64("token", p.Token))
		if d.metrics != nil {
			d.metrics.RecordStaleDelivery()
		}
		return nil, false
	}

	d.mu.Lock()
	if cur, ok := d.cancels[p.Key]; ok && cur.token == p.Token {
		delete(d.cancels, p.Key)
	}
	d.mu.Unlock()

	if p.Err != nil {
		return &Delivery{Key: p.Key, Err: p.Err}, true
	}

	entry, err := d.svc.Record(ctx, p.Outcome)
	return &Delivery{Key: p.Key, Outcome: p.Outcome, Entry: entry, RecordErr: err}, true
}

// Busy - есть ли незавершённый поиск по ключу
func (d *Dispatcher) Busy(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.cancels[key]
	return ok
}

// Close отменяет все поиски и ждёт завершения воркеров
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, f := range d.cancels {
		f.cancel()
	}
	close(d.done)
	d.mu.Unlock()

	d.wg.Wait()
}
