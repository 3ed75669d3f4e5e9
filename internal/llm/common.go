package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type ChatRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Message Message `json:"message"`
}

func NewChatRequest(model string, req GenerateRequest) ChatRequest {
	messages := make([]Message, 0, 2)
	if req.System != "" {
		messages = append(messages, Message{Role: "system", Content: req.System})
	}
	messages = append(messages, Message{Role: "user", Content: req.Prompt})

	return ChatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
}

// ChatEndpoint - OpenAI-совместимый /chat/completions, общий для OpenRouter и GigaChat
type ChatEndpoint struct {
	Provider string
	URL      string
	Model    string
	Headers  map[string]string
	HTTP     *http.Client
	Logger   *zap.Logger
}

// Complete отправляет один запрос. 401 возвращается как ErrAuthFailed без обёртки,
// чтобы клиент с OAuth мог обновить токен и повторить.
func (e *ChatEndpoint) Complete(ctx context.Context, token string, req GenerateRequest) (string, error) {
	start := time.Now()

	body, err := json.Marshal(NewChatRequest(e.Model, req))
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range e.Headers {
		httpReq.Header.Set(k, v)
	}

	respBody, statusCode, err := DoRequest(e.HTTP, httpReq)
	if err != nil {
		return "", err
	}

	e.Logger.Debug("chat completion",
		zap.String("provider", e.Provider),
		zap.String("model", e.Model),
		zap.Int("status", statusCode),
		zap.Int("prompt_runes", utf8.RuneCountInString(req.Prompt)),
		zap.Duration("duration", time.Since(start)),
	)

	if statusCode != http.StatusOK {
		return "", HandleHTTPError(statusCode, respBody, e.Logger, e.Provider)
	}

	return ParseContent(respBody)
}

func HandleHTTPError(statusCode int, body []byte, logger *zap.Logger, provider string) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusTooManyRequests:
		return ErrRateLimit
	default:
		logger.Error(provider+" request failed",
			zap.Int("status", statusCode),
			zap.String("message", ErrorMessage(body)),
		)
		return fmt.Errorf("%w: status %d", ErrRequestFailed, statusCode)
	}
}

// ErrorMessage достает текст ошибки из тела ответа: {"error":{"message":..}}, {"error":"..."} или сырое тело
func ErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return string(body)
	}
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return msg.String()
	}
	if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String {
		return msg.String()
	}
	if msg := gjson.GetBytes(body, "message"); msg.Exists() {
		return msg.String()
	}
	return string(body)
}

// ParseContent - текст первого варианта ответа. OpenRouter присылает ошибки модели со статусом 200.
func ParseContent(body []byte) (string, error) {
	if gjson.GetBytes(body, "error").Type != gjson.Null {
		return "", fmt.Errorf("%w: %s", ErrRequestFailed, ErrorMessage(body))
	}

	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func DoRequest(client *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	return body, resp.StatusCode, nil
}
