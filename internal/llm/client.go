package llm

import (
	"context"
	"errors"
)

var (
	ErrAuthFailed    = errors.New("authentication failed")
	ErrRequestFailed = errors.New("request failed")
	ErrEmptyResponse = errors.New("empty response")
	ErrRateLimit     = errors.New("rate limit exceeded")
)

// GenerateRequest - один вызов модели. Prompt уже содержит шаблон "Вопрос: ...\nОтвет:".
type GenerateRequest struct {
	System    string
	Prompt    string
	MaxTokens int
}

type Client interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Reason - короткая метка ошибки для логов
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, ErrAuthFailed):
		return "auth"
	case errors.Is(err, ErrRateLimit):
		return "rate_limit"
	case errors.Is(err, ErrEmptyResponse):
		return "empty"
	case errors.Is(err, ErrRequestFailed):
		return "request"
	default:
		return "unknown"
	}
}
