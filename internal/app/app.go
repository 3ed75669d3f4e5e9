package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/bootstrap"
	"github.com/kitbuilder587/ikar-assistant/internal/cache"
	"github.com/kitbuilder587/ikar-assistant/internal/config"
	"github.com/kitbuilder587/ikar-assistant/internal/domain"
	"github.com/kitbuilder587/ikar-assistant/internal/links"
	"github.com/kitbuilder587/ikar-assistant/internal/llm"
	"github.com/kitbuilder587/ikar-assistant/internal/llm/gigachat"
	"github.com/kitbuilder587/ikar-assistant/internal/llm/mock"
	"github.com/kitbuilder587/ikar-assistant/internal/llm/ollama"
	"github.com/kitbuilder587/ikar-assistant/internal/llm/openrouter"
	"github.com/kitbuilder587/ikar-assistant/internal/metrics"
	"github.com/kitbuilder587/ikar-assistant/internal/repository"
	"github.com/kitbuilder587/ikar-assistant/internal/responder"
	"github.com/kitbuilder587/ikar-assistant/internal/service"
	"github.com/kitbuilder587/ikar-assistant/internal/speech"
)

type ambientPlayer interface {
	Start(ctx context.Context) error
	Stop()
}

// App - собранные зависимости оболочек. Хранилище открывается один раз и закрывается в Close.
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	History    repository.HistoryRepository
	Search     service.SearchService
	Dispatcher *service.Dispatcher
	Recent     service.HistoryService
	Speaker    speech.Speaker

	ambient   ambientPlayer
	linkCache cache.Cache[[]domain.SearchResultLink]
}

type Options struct {
	// LLMClient и Finder подменяют провайдеров из конфига
	LLMClient llm.Client
	Finder    links.Finder
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics, opts Options) (*App, error) {
	llmClient := opts.LLMClient
	if llmClient == nil && cfg.Responder.Type == config.ResponderModel {
		var err error
		llmClient, err = NewLLMClient(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	resp, err := responder.New(cfg.Responder, llmClient, logger, m)
	if err != nil {
		return nil, fmt.Errorf("create responder: %w", err)
	}

	linkCache, err := cache.New[[]domain.SearchResultLink](cfg.Cache.Type, cfg.Cache.Size)
	if err != nil {
		return nil, err
	}

	finder := opts.Finder
	if finder == nil {
		finder, err = links.New(ctx, cfg, links.Deps{
			Logger:  logger,
			Metrics: m,
			Cache:   linkCache,
		})
		if err != nil {
			linkCache.Stop()
			return nil, fmt.Errorf("create link finder: %w", err)
		}
	}

	history, err := bootstrap.OpenHistory(ctx, cfg)
	if err != nil {
		linkCache.Stop()
		return nil, fmt.Errorf("open history: %w", err)
	}

	svc := service.NewSearchService(service.SearchServiceDeps{
		Responder: resp,
		Links:     finder,
		History:   history,
		Logger:    logger,
		Metrics:   m,
	})

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Metrics:    m,
		History:    history,
		Search:     svc,
		Dispatcher: service.NewDispatcher(svc, logger, m),
		Recent:     service.NewHistoryService(history, cfg.History.Limit, logger),
		Speaker:    newSpeaker(cfg, logger),
		ambient:    newAmbient(cfg, logger),
		linkCache:  linkCache,
	}

	logger.Info("application assembled",
		zap.String("responder", resp.Name()),
		zap.String("links", finder.Name()),
		zap.String("history", cfg.History.Backend),
	)

	return a, nil
}

// NewLLMClient - клиент модели по LLM_PROVIDER
func NewLLMClient(cfg *config.Config, logger *zap.Logger) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "mock", "":
		return mock.New(), nil
	case "gigachat":
		return gigachat.New(gigachat.Config{
			AuthKey:      cfg.LLM.GigaChat.AuthKey,
			ClientID:     cfg.LLM.GigaChat.ClientID,
			ClientSecret: cfg.LLM.GigaChat.ClientSecret,
			Scope:        cfg.LLM.GigaChat.Scope,
			AuthURL:      cfg.LLM.GigaChat.AuthURL,
			BaseURL:      cfg.LLM.GigaChat.BaseURL,
			Timeout:      cfg.LLM.Timeout,
		}, logger), nil
	case "openrouter":
		return openrouter.New(openrouter.Config{
			APIKey:  cfg.LLM.OpenRouter.APIKey,
			Model:   cfg.LLM.OpenRouter.Model,
			BaseURL: cfg.LLM.OpenRouter.BaseURL,
			Timeout: cfg.LLM.Timeout,
		}, logger), nil
	case "ollama":
		return ollama.New(ollama.Config{
			BaseURL: cfg.LLM.Ollama.BaseURL,
			Model:   cfg.LLM.Ollama.Model,
			Timeout: cfg.LLM.Timeout,
		}, logger), nil
	default:
		return nil, fmt.Errorf("%w %q", config.ErrInvalidLLMProvider, cfg.LLM.Provider)
	}
}

// без программы озвучки работаем молча
func newSpeaker(cfg *config.Config, logger *zap.Logger) speech.Speaker {
	s, err := speech.NewCommandSpeaker(cfg.Speech.TTSCommand, logger)
	if err != nil {
		logger.Info("speech disabled", zap.Error(err))
		return speech.Nop{}
	}
	return s
}

func newAmbient(cfg *config.Config, logger *zap.Logger) ambientPlayer {
	a, err := speech.NewAmbient(cfg.Speech.AmbientCommand, cfg.Speech.AmbientFile, logger)
	if err != nil {
		logger.Info("ambient audio disabled", zap.Error(err))
		return speech.Nop{}
	}
	return a
}

// StartAmbient запускает фоновый звук. Ошибка плеера не мешает работе.
func (a *App) StartAmbient(ctx context.Context) {
	if err := a.ambient.Start(ctx); err != nil {
		a.Logger.Warn("ambient audio failed", zap.Error(err))
	}
}

// Close останавливает поиски и звук, затем закрывает хранилище
func (a *App) Close() error {
	a.Dispatcher.Close()
	a.Speaker.Stop()
	a.ambient.Stop()
	a.linkCache.Stop()
	return a.History.Close()
}
