package links

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_FindLinks(t *testing.T) {
	s := NewStatic()

	wantTitles := []string{
		"Решение проблем с ККТ и 1С - Официальный сайт поддержки",
		"Часто возникающие ошибки ФН и способы их устранения",
		"Форум 1С: Проблемы с печатью чеков",
		"Инструкция по подключению ККТ к 1С 8.3",
		"Диагностика и устранение неисправностей ККТ",
	}

	for _, q := range []string{"ошибка фн", "", "совсем другой вопрос"} {
		got, err := s.FindLinks(context.Background(), q)
		require.NoError(t, err)
		require.Len(t, got, 5)
		for i, title := range wantTitles {
			assert.Equal(t, title, got[i].Title)
			assert.NotEmpty(t, got[i].URL)
			assert.NotEmpty(t, got[i].Snippet)
		}
	}
}

func TestStatic_ReturnsCopy(t *testing.T) {
	s := NewStatic()

	first, _ := s.FindLinks(context.Background(), "q")
	first[0].Title = "changed"

	second, _ := s.FindLinks(context.Background(), "q")
	assert.NotEqual(t, "changed", second[0].Title)
}
