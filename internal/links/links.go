package links

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/cache"
	"github.com/kitbuilder587/ikar-assistant/internal/config"
	"github.com/kitbuilder587/ikar-assistant/internal/domain"
	"github.com/kitbuilder587/ikar-assistant/internal/metrics"
	"github.com/kitbuilder587/ikar-assistant/internal/search"
	"github.com/kitbuilder587/ikar-assistant/internal/search/google"
	"github.com/kitbuilder587/ikar-assistant/internal/search/tavily"
)

const MaxLinks = 5

// Finder ищет дополнительные ссылки по запросу.
// Возвращает от 0 до MaxLinks записей; ошибка значит, что список пуст из-за сбоя провайдера.
type Finder interface {
	FindLinks(ctx context.Context, query string) ([]domain.SearchResultLink, error)
	Name() string
}

type Deps struct {
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Cache   cache.Cache[[]domain.SearchResultLink]
	// Client подменяет провайдера из конфига, используется в тестах
	Client search.SearchClient
}

func New(ctx context.Context, cfg *config.Config, deps Deps) (Finder, error) {
	if cfg.Links.Provider == config.LinksStatic || cfg.Links.Provider == "" {
		return NewStatic(), nil
	}

	client := deps.Client
	if client == nil {
		var err error
		client, err = newSearchClient(ctx, cfg, deps.Logger)
		if err != nil {
			return nil, err
		}
	}

	return NewWeb(client, WebConfig{
		Provider:   cfg.Links.Provider,
		MaxResults: cfg.Links.MaxResults,
		Timeout:    cfg.Links.Timeout,
		CacheTTL:   cfg.Cache.TTL,
	}, deps.Cache, deps.Logger, deps.Metrics), nil
}

func newSearchClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (search.SearchClient, error) {
	switch cfg.Links.Provider {
	case config.LinksTavily:
		return tavily.New(tavily.Config{
			APIKey:  cfg.Tavily.APIKey,
			BaseURL: cfg.Tavily.BaseURL,
			Timeout: cfg.Tavily.Timeout,
		}, logger), nil
	case config.LinksGoogle:
		return google.New(ctx, google.Config{
			APIKey:  cfg.Google.APIKey,
			CX:      cfg.Google.CX,
			BaseURL: cfg.Google.BaseURL,
			Timeout: cfg.Links.Timeout,
		}, logger)
	default:
		return nil, fmt.Errorf("%w %q", config.ErrInvalidLinks, cfg.Links.Provider)
	}
}
