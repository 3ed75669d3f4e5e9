package responder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyword_Respond(t *testing.T) {
	table := DefaultTable()
	answer := func(kw string) string {
		for _, e := range table.Entries {
			if e.Keyword == kw {
				return e.Answer
			}
		}
		t.Fatalf("no entry %q", kw)
		return ""
	}

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"фн lower", "не работает фн", answer("фн")},
		{"фн upper", "ОШИБКА ФН ПРИ ПЕЧАТИ ЧЕКА", answer("фн")},
		{"фн mixed with печать", "Печать чека, Фн заполнен", answer("фн")},
		{"ошибка", "Ошибка драйвера", answer("ошибка")},
		{"ошибка before печать", "ошибка: печать не идёт", answer("ошибка")},
		{"печать", "не идет печать чеков", answer("печать")},
		{"1с cyrillic", "Не запускается 1С", answer("1с")},
		{"latin c does not match", "не запускается 1C", defaultAnswer},
		{"default", "касса пищит", defaultAnswer},
	}

	r := NewKeyword(table)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Respond(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyword_NeverBlank(t *testing.T) {
	r := NewKeyword(DefaultTable())

	for _, q := range []string{"a", "ккт", "?", "1", "ФНС"} {
		got, err := r.Respond(context.Background(), q)
		require.NoError(t, err)
		assert.NotEmpty(t, strings.TrimSpace(got), q)
	}
}

func TestKeyword_TableKeywordsAreFolded(t *testing.T) {
	r := NewKeyword(Table{
		Entries: []Entry{{Keyword: "ЭКЛЗ", Answer: "Замените ЭКЛЗ"}},
		Default: "нет",
	})

	got, _ := r.Respond(context.Background(), "сломалась эклз")
	assert.Equal(t, "Замените ЭКЛЗ", got)
}

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()

	t.Run("ordered entries", func(t *testing.T) {
		path := filepath.Join(dir, "ok.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
entries:
  - keyword: печать
    answer: Проверьте бумагу
  - keyword: фн
    answer: Проверьте ФН
default: Обратитесь в поддержку
`), 0o644))

		table, err := LoadTable(path)
		require.NoError(t, err)
		require.Len(t, table.Entries, 2)
		assert.Equal(t, "печать", table.Entries[0].Keyword)
		assert.Equal(t, "Обратитесь в поддержку", table.Default)

		got, _ := NewKeyword(table).Respond(context.Background(), "печать ФН")
		assert.Equal(t, "Проверьте бумагу", got)
	})

	t.Run("default falls back to builtin", func(t *testing.T) {
		path := filepath.Join(dir, "nodefault.yaml")
		require.NoError(t, os.WriteFile(path, []byte("entries:\n  - keyword: x\n    answer: y\n"), 0o644))

		table, err := LoadTable(path)
		require.NoError(t, err)
		assert.Equal(t, defaultAnswer, table.Default)
	})

	t.Run("empty answer rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("entries:\n  - keyword: фн\n    answer: \"\"\n"), 0o644))

		_, err := LoadTable(path)
		assert.Error(t, err)
	})

	t.Run("no entries rejected", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("default: hi\n"), 0o644))

		_, err := LoadTable(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTable(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}
