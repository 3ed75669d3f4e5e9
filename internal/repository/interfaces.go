package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
)

// HistoryRepository - журнал пар запрос/ответ. Записи только добавляются.
type HistoryRepository interface {
	Append(ctx context.Context, query, response string, ts time.Time) (*domain.HistoryEntry, error)
	// Recent - не больше limit записей, новые первыми; при равном времени первой идёт более поздняя вставка
	Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
	Get(ctx context.Context, id int64) (*domain.HistoryEntry, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

// StorageError оборачивает ошибку драйвера в storage_failure
func StorageError(op string, err error) error {
	return domain.NewFailure(domain.FailureStorage, op, fmt.Errorf("%w: %v", domain.ErrStorage, err))
}
