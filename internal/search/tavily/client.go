package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/search"
)

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	// паузы между повторами при 5xx, по умолчанию 1s/2s/4s
	Backoff []time.Duration
}

type Client struct {
	apiKey  string
	baseURL string
	backoff []time.Duration
	client  *http.Client
	logger  *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.tavily.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Backoff == nil {
		cfg.Backoff = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		backoff: cfg.Backoff,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	IncludeAnswer  bool     `json:"include_answer"`
}

type tavilyResponse struct {
	Query   string         `json:"query"`
	Results []tavilyResult `json:"results"`
}

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

func (c *Client) Search(ctx context.Context, req search.SearchRequest) (*search.SearchResponse, error) {
	req = req.WithDefaults()

	body, err := json.Marshal(tavilyRequest{
		APIKey:         c.apiKey,
		Query:          req.Query,
		IncludeDomains: req.IncludeDomains,
		MaxResults:     req.MaxResults,
		SearchDepth:    "basic",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= len(c.backoff); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff[attempt-1]):
			}
		}

		resp, retry, err := c.do(ctx, body)
		if err == nil {
			return resp, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
		c.logger.Debug("tavily attempt failed", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	return nil, fmt.Errorf("%w: %v", search.ErrSearchFailed, lastErr)
}

// do делает одну попытку; retry=true для сетевых ошибок и 5xx
func (c *Client) do(ctx context.Context, body []byte) (*search.SearchResponse, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var tavilyResp tavilyResponse
		if err := json.Unmarshal(respBody, &tavilyResp); err != nil {
			return nil, false, fmt.Errorf("unmarshal response: %w", err)
		}
		if len(tavilyResp.Results) == 0 {
			return nil, false, search.ErrEmptyResults
		}
		return toSearchResponse(&tavilyResp), false, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, false, search.ErrUnauthorized
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, false, search.ErrRateLimit
	case resp.StatusCode == http.StatusBadRequest:
		c.logger.Warn("tavily rejected request", zap.String("detail", gjson.GetBytes(respBody, "detail.error").String()))
		return nil, false, search.ErrInvalidRequest
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("%w: status %d", search.ErrSearchFailed, resp.StatusCode)
	}
}

func toSearchResponse(resp *tavilyResponse) *search.SearchResponse {
	results := make([]search.SearchResult, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = search.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
		}
	}

	return &search.SearchResponse{
		Query:   resp.Query,
		Results: results,
	}
}

var _ search.SearchClient = (*Client)(nil)
