package responder

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
	"github.com/kitbuilder587/ikar-assistant/internal/llm"
)

const (
	DefaultMaxLength       = 200
	DefaultMinAnswerLength = 20

	shortAnswerFallback = "Извините, не удалось сгенерировать подходящий ответ. Пожалуйста, проверьте результаты поиска ниже."
	generateErrorPrefix = "Не удалось сгенерировать ответ с помощью AI: "
)

type ModelConfig struct {
	MaxLength       int
	MinAnswerLength int
}

// Model отвечает через генеративную модель. Повторов нет: ошибка сразу превращается в текст.
type Model struct {
	client    llm.Client
	maxLength int
	minLength int
	logger    *zap.Logger
}

func NewModel(client llm.Client, cfg ModelConfig, logger *zap.Logger) *Model {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.MinAnswerLength <= 0 {
		cfg.MinAnswerLength = DefaultMinAnswerLength
	}
	return &Model{
		client:    client,
		maxLength: cfg.MaxLength,
		minLength: cfg.MinAnswerLength,
		logger:    logger,
	}
}

func BuildPrompt(query string) string {
	return "Вопрос: " + query + "\nОтвет:"
}

func (m *Model) Respond(ctx context.Context, query string) (string, error) {
	prompt := BuildPrompt(query)

	out, err := m.client.Generate(ctx, llm.GenerateRequest{
		Prompt:    prompt,
		MaxTokens: m.maxLength,
	})
	if err != nil {
		m.logger.Warn("model generation failed", zap.String("reason", llm.Reason(err)), zap.Error(err))
		return generateErrorPrefix + err.Error(),
			domain.NewFailure(domain.FailureUpstreamUnavailable, "generate answer",
				fmt.Errorf("%w: %v", domain.ErrResponderFailed, err))
	}

	// модель может вернуть промпт вместе с продолжением
	answer := strings.TrimSpace(strings.ReplaceAll(out, prompt, ""))
	if utf8.RuneCountInString(answer) < m.minLength {
		m.logger.Debug("model answer too short", zap.Int("runes", utf8.RuneCountInString(answer)))
		return shortAnswerFallback, nil
	}
	return answer, nil
}

func (m *Model) Name() string {
	return "model"
}
