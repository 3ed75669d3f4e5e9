package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
	"github.com/kitbuilder587/ikar-assistant/internal/repository"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
    id BIGSERIAL PRIMARY KEY,
    query TEXT NOT NULL,
    response TEXT NOT NULL,
    timestamp TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS history_timestamp_idx ON history (timestamp DESC, id DESC);
`

type HistoryRepo struct {
	db *DB
}

func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Open подключается к базе и создаёт таблицу истории
func Open(ctx context.Context, connStr string) (*HistoryRepo, error) {
	db, err := New(ctx, connStr)
	if err != nil {
		return nil, repository.StorageError("open history db", err)
	}

	repo := NewHistoryRepo(db)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *HistoryRepo) Migrate(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, schema); err != nil {
		return repository.StorageError("create history table", err)
	}
	return nil
}

func (r *HistoryRepo) Append(ctx context.Context, query, response string, ts time.Time) (*domain.HistoryEntry, error) {
	q := `INSERT INTO history (query, response, timestamp) VALUES ($1, $2, $3) RETURNING id`

	entry := domain.HistoryEntry{Query: query, Response: response, Timestamp: ts}
	if err := r.db.Pool.QueryRow(ctx, q, query, response, ts).Scan(&entry.ID); err != nil {
		return nil, repository.StorageError("append history", err)
	}
	return &entry, nil
}

func (r *HistoryRepo) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		return []domain.HistoryEntry{}, nil
	}

	q := `
		SELECT id, query, response, timestamp
		FROM history
		ORDER BY timestamp DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, repository.StorageError("recent history", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.Query, &e.Response, &e.Timestamp); err != nil {
			return nil, repository.StorageError("scan history", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.StorageError("recent history", err)
	}

	return entries, nil
}

func (r *HistoryRepo) Get(ctx context.Context, id int64) (*domain.HistoryEntry, error) {
	q := `SELECT id, query, response, timestamp FROM history WHERE id = $1`

	var e domain.HistoryEntry
	err := r.db.Pool.QueryRow(ctx, q, id).Scan(&e.ID, &e.Query, &e.Response, &e.Timestamp)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrHistoryNotFound
		}
		return nil, repository.StorageError("get history", err)
	}
	return &e, nil
}

func (r *HistoryRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM history`).Scan(&n); err != nil {
		return 0, repository.StorageError("count history", err)
	}
	return n, nil
}

func (r *HistoryRepo) Close() error {
	r.db.Close()
	return nil
}

var _ repository.HistoryRepository = (*HistoryRepo)(nil)
