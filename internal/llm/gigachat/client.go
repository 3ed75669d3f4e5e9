package gigachat

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/llm"
)

type Config struct {
	AuthKey      string // готовый ключ авторизации
	ClientID     string // либо пара id:secret
	ClientSecret string
	Scope        string
	AuthURL      string
	BaseURL      string
	Model        string
	Timeout      time.Duration
}

type Client struct {
	tokens   *tokenSource
	endpoint *llm.ChatEndpoint
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.AuthURL == "" {
		cfg.AuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://gigachat.devices.sberbank.ru/api/v1"
	}
	if cfg.Scope == "" {
		cfg.Scope = "GIGACHAT_API_PERS"
	}
	if cfg.Model == "" {
		cfg.Model = "GigaChat"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	// сертификат Минцифры не входит в системные корни
	httpClient := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}

	return &Client{
		tokens: &tokenSource{
			authKey: authKey(cfg),
			scope:   cfg.Scope,
			authURL: cfg.AuthURL,
			client:  httpClient,
			logger:  logger,
			now:     time.Now,
		},
		endpoint: &llm.ChatEndpoint{
			Provider: "gigachat",
			URL:      strings.TrimSuffix(cfg.BaseURL, "/") + "/chat/completions",
			Model:    cfg.Model,
			HTTP:     httpClient,
			Logger:   logger,
		},
	}
}

func authKey(cfg Config) string {
	if cfg.AuthKey != "" {
		return cfg.AuthKey
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(cfg.ClientID + ":" + cfg.ClientSecret))
}

// Generate при 401 один раз сбрасывает токен и повторяет запрос
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	for attempt := 0; ; attempt++ {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return "", err
		}

		text, err := c.endpoint.Complete(ctx, token, req)
		if errors.Is(err, llm.ErrAuthFailed) && attempt == 0 {
			c.tokens.Invalidate()
			continue
		}
		return text, err
	}
}

var _ llm.Client = (*Client)(nil)
