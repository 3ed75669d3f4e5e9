package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const MaxQueryLength = 1000

type SearchRequest struct {
	Query string
}

func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return NewFailure(FailureInputInvalid, "validate query", ErrEmptyQuery)
	}

	if utf8.RuneCountInString(strings.TrimSpace(r.Query)) > MaxQueryLength {
		return NewFailure(FailureInputInvalid, "validate query", ErrQueryTooLong)
	}

	return nil
}

func (r *SearchRequest) Sanitize() {
	r.Query = strings.TrimSpace(r.Query)
}

// SearchResultLink живет только в рамках одного поиска, отдельно не сохраняется
type SearchResultLink struct {
	Title   string
	URL     string
	Snippet string
}

// SearchOutcome - результат одного поиска. Порядок Links совпадает с
// нумерацией в ResponseText и в списке ссылок оболочки.
type SearchOutcome struct {
	Query        string
	Answer       string
	ResponseText string
	Links        []SearchResultLink
	CreatedAt    time.Time

	// деградации, которые не помешали собрать ответ
	ResponderErr error
	LinksErr     error
}

// Link возвращает ссылку по 1-based номеру из списка
func (o *SearchOutcome) Link(n int) (SearchResultLink, bool) {
	if o == nil || n < 1 || n > len(o.Links) {
		return SearchResultLink{}, false
	}
	return o.Links[n-1], true
}

func (o *SearchOutcome) Degraded() bool {
	return o.ResponderErr != nil || o.LinksErr != nil
}
