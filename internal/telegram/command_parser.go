package telegram

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidIndex = errors.New("invalid index")

// ParseQuery - текст запроса без лишних пробелов внутри строк. Переводы строк сохраняются.
func ParseQuery(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = normalizeSpaces(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// ParseIndex - номер из аргумента команды (/show 3), считая с 1
func ParseIndex(arg string) (int, error) {
	fields := strings.Fields(arg)
	if len(fields) != 1 {
		return 0, ErrInvalidIndex
	}
	n, err := strconv.Atoi(strings.TrimPrefix(fields[0], "#"))
	if err != nil || n < 1 {
		return 0, ErrInvalidIndex
	}
	return n, nil
}

func normalizeSpaces(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
