package search

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrUnauthorized   = errors.New("invalid API key")
	ErrRateLimit      = errors.New("rate limit exceeded")
	ErrInvalidRequest = errors.New("invalid request parameters")
	ErrSearchFailed   = errors.New("search request failed")
	ErrEmptyResults   = errors.New("no results found")
)

const (
	DefaultMaxResults = 5
	DefaultLanguage   = "ru"
)

// SearchClient - веб-поиск, из которого собираются дополнительные ссылки
type SearchClient interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

type SearchRequest struct {
	Query          string
	MaxResults     int
	Language       string
	IncludeDomains []string
}

// WithDefaults подставляет лимит выдачи и язык, если они не заданы
func (r SearchRequest) WithDefaults() SearchRequest {
	r.Query = strings.TrimSpace(r.Query)
	if r.MaxResults <= 0 {
		r.MaxResults = DefaultMaxResults
	}
	if r.Language == "" {
		r.Language = DefaultLanguage
	}
	return r
}

type SearchResponse struct {
	Query   string
	Results []SearchResult
}

type SearchResult struct {
	Title   string
	URL     string
	Content string
	Score   float64
}

// Usable - у результата есть адрес, по которому можно перейти
func (r SearchResult) Usable() bool {
	return strings.HasPrefix(r.URL, "http://") || strings.HasPrefix(r.URL, "https://")
}

// Transient - ошибку имеет смысл повторить позже
func Transient(err error) bool {
	return errors.Is(err, ErrRateLimit) || errors.Is(err, ErrSearchFailed)
}
