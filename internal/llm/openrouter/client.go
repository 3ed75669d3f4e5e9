package openrouter

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/llm"
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	apiKey   string
	endpoint *llm.ChatEndpoint
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek/deepseek-chat"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &Client{
		apiKey: cfg.APIKey,
		endpoint: &llm.ChatEndpoint{
			Provider: "openrouter",
			URL:      strings.TrimSuffix(cfg.BaseURL, "/") + "/chat/completions",
			Model:    cfg.Model,
			// OpenRouter показывает эти заголовки в статистике приложения
			Headers: map[string]string{
				"HTTP-Referer": "https://github.com/kitbuilder587/ikar-assistant",
				"X-Title":      "IKAR Assistant",
			},
			HTTP:   &http.Client{Timeout: cfg.Timeout},
			Logger: logger,
		},
	}
}

func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: OPENROUTER_API_KEY is empty", llm.ErrAuthFailed)
	}
	return c.endpoint.Complete(ctx, c.apiKey, req)
}

var _ llm.Client = (*Client)(nil)
