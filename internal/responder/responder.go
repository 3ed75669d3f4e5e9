package responder

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/config"
	"github.com/kitbuilder587/ikar-assistant/internal/llm"
	"github.com/kitbuilder587/ikar-assistant/internal/metrics"
)

// Responder - стратегия ответа на запрос.
// Текст никогда не пустой; ошибка означает, что ответ деградировал и текст объясняет это пользователю.
type Responder interface {
	Respond(ctx context.Context, query string) (string, error)
	Name() string
}

// New выбирает стратегию по конфигу. llmClient нужен только для model.
func New(cfg config.ResponderConfig, llmClient llm.Client, logger *zap.Logger, m *metrics.Metrics) (Responder, error) {
	var r Responder

	switch cfg.Type {
	case config.ResponderKeyword, "":
		table := DefaultTable()
		if cfg.KeywordsFile != "" {
			loaded, err := LoadTable(cfg.KeywordsFile)
			if err != nil {
				return nil, fmt.Errorf("load keyword table: %w", err)
			}
			table = loaded
			logger.Info("keyword table loaded",
				zap.String("file", cfg.KeywordsFile),
				zap.Int("entries", len(table.Entries)),
			)
		}
		r = NewKeyword(table)
	case config.ResponderModel:
		if llmClient == nil {
			return nil, fmt.Errorf("model responder requires llm client")
		}
		r = NewModel(llmClient, ModelConfig{
			MaxLength:       cfg.MaxLength,
			MinAnswerLength: cfg.MinAnswerLength,
		}, logger)
	default:
		return nil, fmt.Errorf("%w %q", config.ErrInvalidResponder, cfg.Type)
	}

	if m == nil {
		return r, nil
	}
	return &instrumented{next: r, metrics: m}, nil
}

type instrumented struct {
	next    Responder
	metrics *metrics.Metrics
}

func (i *instrumented) Respond(ctx context.Context, query string) (string, error) {
	start := time.Now()
	text, err := i.next.Respond(ctx, query)

	status := "ok"
	if err != nil {
		status = "error"
	}
	i.metrics.RecordResponderCall(i.next.Name(), status, time.Since(start))
	return text, err
}

func (i *instrumented) Name() string {
	return i.next.Name()
}
