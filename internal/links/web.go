package links

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/cache"
	"github.com/kitbuilder587/ikar-assistant/internal/domain"
	"github.com/kitbuilder587/ikar-assistant/internal/metrics"
	"github.com/kitbuilder587/ikar-assistant/internal/search"
)

type WebConfig struct {
	Provider   string
	MaxResults int
	Timeout    time.Duration
	CacheTTL   time.Duration
}

// Web ищет ссылки через веб-поиск. Сбой провайдера не прерывает поиск:
// возвращается пустой список и ошибка upstream_unavailable.
type Web struct {
	client  search.SearchClient
	cfg     WebConfig
	cache   cache.Cache[[]domain.SearchResultLink]
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewWeb(client search.SearchClient, cfg WebConfig, c cache.Cache[[]domain.SearchResultLink], logger *zap.Logger, m *metrics.Metrics) *Web {
	if cfg.MaxResults <= 0 || cfg.MaxResults > MaxLinks {
		cfg.MaxResults = MaxLinks
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if c == nil {
		c = cache.Nop[[]domain.SearchResultLink]{}
	}
	return &Web{
		client:  client,
		cfg:     cfg,
		cache:   c,
		logger:  logger,
		metrics: m,
	}
}

func (w *Web) FindLinks(ctx context.Context, query string) ([]domain.SearchResultLink, error) {
	key := cacheKey(query)
	if cached, ok := w.cache.Get(key); ok {
		w.recordCache(true)
		return cached, nil
	}
	w.recordCache(false)

	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := w.client.Search(ctx, search.SearchRequest{
		Query:      query,
		MaxResults: w.cfg.MaxResults,
		Language:   "ru",
	})

	switch {
	case errors.Is(err, search.ErrEmptyResults):
		w.record("empty", start)
		w.cache.Set(key, []domain.SearchResultLink{}, w.cfg.CacheTTL)
		return []domain.SearchResultLink{}, nil
	case err != nil:
		w.record("error", start)
		w.logger.Warn("link lookup failed",
			zap.String("provider", w.cfg.Provider),
			zap.Bool("transient", search.Transient(err)),
			zap.Error(err),
		)
		return []domain.SearchResultLink{}, domain.NewFailure(domain.FailureUpstreamUnavailable, "find links",
			fmt.Errorf("%w: %v", domain.ErrLinksFailed, err))
	}

	w.record("ok", start)

	out := make([]domain.SearchResultLink, 0, w.cfg.MaxResults)
	for _, r := range resp.Results {
		if len(out) == w.cfg.MaxResults {
			break
		}
		if !r.Usable() {
			continue
		}
		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = r.URL
		}
		out = append(out, domain.SearchResultLink{
			Title:   title,
			URL:     r.URL,
			Snippet: strings.TrimSpace(r.Content),
		})
	}

	w.cache.Set(key, out, w.cfg.CacheTTL)
	return out, nil
}

func (w *Web) Name() string {
	return w.cfg.Provider
}

func (w *Web) record(status string, start time.Time) {
	if w.metrics != nil {
		w.metrics.RecordLinkLookup(w.cfg.Provider, status, time.Since(start))
	}
}

func (w *Web) recordCache(hit bool) {
	if w.metrics == nil {
		return
	}
	if hit {
		w.metrics.RecordCacheHit()
	} else {
		w.metrics.RecordCacheMiss()
	}
}

func cacheKey(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
