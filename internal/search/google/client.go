package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"

	"github.com/kitbuilder587/ikar-assistant/internal/search"
)

// Custom Search JSON API отдаёт не больше 10 результатов за запрос
const maxNum = 10

type Config struct {
	APIKey  string
	CX      string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	cx     string
	svc    *customsearch.Service
	logger *zap.Logger
}

func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" || cfg.CX == "" {
		return nil, search.ErrUnauthorized
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	// свой http.Client отменяет WithAPIKey, поэтому ключ добавляет транспорт
	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: &transport.APIKey{Key: cfg.APIKey, Transport: http.DefaultTransport},
	}
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create customsearch service: %w", err)
	}

	return &Client{cx: cfg.CX, svc: svc, logger: logger}, nil
}

func (c *Client) Search(ctx context.Context, req search.SearchRequest) (*search.SearchResponse, error) {
	req = req.WithDefaults()
	num := req.MaxResults
	if num > maxNum {
		num = maxNum
	}

	call := c.svc.Cse.List().Cx(c.cx).Q(req.Query).Num(int64(num)).Context(ctx)
	if req.Language != "" {
		call = call.Hl(req.Language).Lr("lang_" + req.Language)
	}
	if len(req.IncludeDomains) == 1 {
		call = call.SiteSearch(req.IncludeDomains[0]).SiteSearchFilter("i")
	}

	res, err := call.Do()
	if err != nil {
		return nil, c.mapError(err)
	}

	if len(res.Items) == 0 {
		return nil, search.ErrEmptyResults
	}

	results := make([]search.SearchResult, 0, len(res.Items))
	for _, item := range res.Items {
		results = append(results, search.SearchResult{
			Title:   item.Title,
			URL:     item.Link,
			Content: item.Snippet,
		})
	}

	return &search.SearchResponse{Query: req.Query, Results: results}, nil
}

func (c *Client) mapError(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %v", search.ErrSearchFailed, err)
	}

	c.logger.Warn("google search error",
		zap.Int("code", apiErr.Code),
		zap.String("message", apiErr.Message),
	)

	switch apiErr.Code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return search.ErrUnauthorized
	case http.StatusTooManyRequests:
		return search.ErrRateLimit
	case http.StatusBadRequest:
		return search.ErrInvalidRequest
	default:
		return fmt.Errorf("%w: status %d", search.ErrSearchFailed, apiErr.Code)
	}
}

var _ search.SearchClient = (*Client)(nil)
