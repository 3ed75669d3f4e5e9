package gigachat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/llm"
)

// запас до истечения, после которого токен считается протухшим
const expiryMargin = 5 * time.Minute

type authResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// tokenSource кэширует OAuth-токен Сбера и обновляет его по требованию
type tokenSource struct {
	authKey string
	scope   string
	authURL string
	client  *http.Client
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiry.Add(-expiryMargin)) {
		return s.token, nil
	}

	if s.authKey == "" {
		return "", fmt.Errorf("%w: GIGACHAT_AUTH_KEY is empty", llm.ErrAuthFailed)
	}

	resp, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}

	s.token = resp.AccessToken
	s.expiry = time.UnixMilli(resp.ExpiresAt)

	s.logger.Debug("gigachat token refreshed", zap.Time("expires", s.expiry))

	return s.token, nil
}

func (s *tokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.expiry = time.Time{}
	s.mu.Unlock()
}

func (s *tokenSource) fetch(ctx context.Context) (*authResponse, error) {
	form := url.Values{"scope": {s.scope}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create auth request: %w", err)
	}

	req.Header.Set("Authorization", "Basic "+s.authKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.NewString())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llm.ErrAuthFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		s.logger.Error("gigachat auth failed",
			zap.Int("status", resp.StatusCode),
			zap.String("message", llm.ErrorMessage(body)),
		)
		return nil, llm.ErrAuthFailed
	}

	var out authResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", llm.ErrAuthFailed)
	}

	return &out, nil
}
