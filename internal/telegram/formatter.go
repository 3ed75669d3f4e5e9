package telegram

import (
	"fmt"
	"html"
	"strings"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
)

const (
	linksHeader = "<b>Дополнительные источники информации:</b>\n"
	noLinksText = "Не удалось найти дополнительные источники информации."
)

// FormatOutcome - HTML-версия ответа. Номера ссылок совпадают с ResponseText.
func FormatOutcome(o *domain.SearchOutcome) string {
	var sb strings.Builder
	sb.WriteString(html.EscapeString(o.Answer))
	sb.WriteString("\n\n")

	if len(o.Links) == 0 {
		sb.WriteString(noLinksText)
		return sb.String()
	}

	sb.WriteString("━━━━━━━━━━━━━━━━━━━━━\n")
	sb.WriteString(linksHeader)
	for i, l := range o.Links {
		escapedURL := html.EscapeString(l.URL)
		sb.WriteString(fmt.Sprintf("%d. %s\n   <a href=\"%s\">%s</a>\n",
			i+1,
			html.EscapeString(l.Title),
			escapedURL,
			html.EscapeString(truncateURL(l.URL, 50)),
		))
	}

	return sb.String()
}

func FormatHistoryList(entries []domain.HistoryEntry) string {
	var sb strings.Builder
	sb.WriteString("<b>История запросов:</b>\n\n")

	for i := range entries {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, html.EscapeString(entries[i].Preview())))
	}

	sb.WriteString(fmt.Sprintf("\nВсего: %d. Ответ: /show N", len(entries)))
	return sb.String()
}

func FormatHistoryEntry(e *domain.HistoryEntry) string {
	return fmt.Sprintf("<b>%s</b>\n<i>%s</i>\n\n%s",
		html.EscapeString(e.Query),
		e.Timestamp.Local().Format(domain.HistoryTimeLayout),
		html.EscapeString(e.Response),
	)
}

func SplitMessage(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var messages []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			messages = append(messages, text)
			break
		}

		splitPoint := findSafeSplitPoint(text, maxLen)
		if splitPoint <= 0 || splitPoint > len(text) {
			splitPoint = maxLen
		}
		splitPoint = runeBoundary(text, splitPoint)

		messages = append(messages, text[:splitPoint])
		text = text[splitPoint:]
	}

	return messages
}

func findSafeSplitPoint(text string, maxLen int) int {
	// ищем пробел или перевод строки, не ломая HTML-теги
	for i := maxLen - 1; i > maxLen/2; i-- {
		if i >= len(text) {
			continue
		}
		if isInsideHTMLTag(text, i) {
			continue
		}

		if text[i] == '\n' || text[i] == ' ' {
			return i + 1
		}
	}

	// внутри тега - ищем конец
	if maxLen < len(text) && isInsideHTMLTag(text, maxLen) {
		for i := maxLen; i < len(text); i++ {
			if text[i] == '>' {
				for j := i + 1; j < len(text) && j < i+50; j++ {
					if text[j] == '\n' || text[j] == ' ' {
						return j + 1
					}
				}
				return i + 1
			}
		}
	}

	for i := maxLen - 1; i > 0; i-- {
		if text[i] == ' ' || text[i] == '\n' {
			return i + 1
		}
	}

	return maxLen
}

// кириллица двухбайтная, режем только по границе руны
func runeBoundary(text string, pos int) int {
	for p := pos; p > 0; p-- {
		if p >= len(text) || isRuneStart(text[p]) {
			return p
		}
	}
	return pos
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func isInsideHTMLTag(text string, pos int) bool {
	if pos >= len(text) || pos < 0 {
		return false
	}
	for i := pos; i >= 0; i-- {
		if text[i] == '>' {
			return false
		}
		if text[i] == '<' {
			return true
		}
	}
	return false
}

func truncateURL(url string, maxLen int) string {
	if len(url) <= maxLen {
		return url
	}
	return url[:runeBoundary(url, maxLen-3)] + "..."
}
