package domain

import (
	"fmt"
	"time"
)

const (
	DefaultHistoryLimit = 50

	// формат метки времени в списке истории
	HistoryTimeLayout = "2006-01-02 15:04:05"

	historyPreviewRunes = 30
)

type HistoryEntry struct {
	ID        int64
	Query     string
	Response  string
	Timestamp time.Time
}

// Preview - строка для списка истории: "время - первые 30 символов запроса..."
func (e *HistoryEntry) Preview() string {
	q := []rune(e.Query)
	if len(q) > historyPreviewRunes {
		q = q[:historyPreviewRunes]
	}
	return fmt.Sprintf("%s - %s...", e.Timestamp.Local().Format(HistoryTimeLayout), string(q))
}
