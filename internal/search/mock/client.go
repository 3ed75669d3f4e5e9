package mock

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/kitbuilder587/ikar-assistant/internal/search"
)

// Client отвечает заготовленной выдачей: сначала по точному запросу, затем общей
type Client struct {
	Results []search.SearchResult
	Error   error
	Delay   time.Duration

	mu          sync.Mutex
	byQuery     map[string][]search.SearchResult
	CallCount   int
	LastRequest search.SearchRequest
}

func New() *Client {
	return &Client{byQuery: make(map[string][]search.SearchResult)}
}

func (c *Client) WithResults(results []search.SearchResult) *Client {
	c.Results = results
	return c
}

// On задает выдачу для конкретного запроса без учета регистра
func (c *Client) On(query string, results ...search.SearchResult) *Client {
	c.mu.Lock()
	c.byQuery[strings.ToLower(strings.TrimSpace(query))] = results
	c.mu.Unlock()
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) WithDelay(delay time.Duration) *Client {
	c.Delay = delay
	return c
}

func (c *Client) Search(ctx context.Context, req search.SearchRequest) (*search.SearchResponse, error) {
	c.mu.Lock()
	c.CallCount++
	c.LastRequest = req
	results, ok := c.byQuery[strings.ToLower(strings.TrimSpace(req.Query))]
	if !ok {
		results = c.Results
	}
	c.mu.Unlock()

	if c.Delay > 0 {
		timer := time.NewTimer(c.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if c.Error != nil {
		return nil, c.Error
	}
	if len(results) == 0 {
		return nil, search.ErrEmptyResults
	}
	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}

	return &search.SearchResponse{Query: req.Query, Results: results}, nil
}

func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CallCount
}

var _ search.SearchClient = (*Client)(nil)
