package search

import (
	"errors"
	"fmt"
	"testing"
)

func TestSearchRequest_WithDefaults(t *testing.T) {
	got := SearchRequest{Query: "  ошибка ФН  "}.WithDefaults()
	if got.Query != "ошибка ФН" || got.MaxResults != DefaultMaxResults || got.Language != DefaultLanguage {
		t.Errorf("WithDefaults() = %+v", got)
	}

	kept := SearchRequest{Query: "q", MaxResults: 3, Language: "en"}.WithDefaults()
	if kept.MaxResults != 3 || kept.Language != "en" {
		t.Errorf("WithDefaults() overwrote explicit values: %+v", kept)
	}
}

func TestSearchResult_Usable(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://its.1c.ru/db/kkt", true},
		{"http://forum.mista.ru", true},
		{"", false},
		{"javascript:alert(1)", false},
		{"/relative/path", false},
	}

	for _, tt := range tests {
		if got := (SearchResult{URL: tt.url}).Usable(); got != tt.want {
			t.Errorf("Usable(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestTransient(t *testing.T) {
	if !Transient(fmt.Errorf("tavily: %w", ErrRateLimit)) {
		t.Error("rate limit should be transient")
	}
	if !Transient(ErrSearchFailed) {
		t.Error("search failure should be transient")
	}
	if Transient(ErrUnauthorized) || Transient(errors.New("boom")) {
		t.Error("auth and unknown errors are not transient")
	}
}
