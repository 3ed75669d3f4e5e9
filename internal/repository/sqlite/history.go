package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
	"github.com/kitbuilder587/ikar-assistant/internal/repository"
)

// время храним текстом фиксированной ширины в UTC, тогда сортировка строк совпадает с сортировкой по времени
const timestampLayout = "2006-01-02 15:04:05.000000"

const schema = `
CREATE TABLE IF NOT EXISTS history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    query TEXT,
    response TEXT,
    timestamp DATETIME
)`

type HistoryRepo struct {
	db *sql.DB
}

// NewHistoryRepo открывает базу и создаёт таблицу, если её нет
func NewHistoryRepo(ctx context.Context, path string) (*HistoryRepo, error) {
	db, err := Open(path)
	if err != nil {
		return nil, repository.StorageError("open history db", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, repository.StorageError("create history table", err)
	}

	return &HistoryRepo{db: db}, nil
}

func (r *HistoryRepo) Append(ctx context.Context, query, response string, ts time.Time) (*domain.HistoryEntry, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO history (query, response, timestamp) VALUES (?, ?, ?)`,
		query, response, ts.UTC().Format(timestampLayout),
	)
	if err != nil {
		return nil, repository.StorageError("append history", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, repository.StorageError("append history", err)
	}

	return &domain.HistoryEntry{
		ID:        id,
		Query:     query,
		Response:  response,
		Timestamp: ts,
	}, nil
}

func (r *HistoryRepo) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		return []domain.HistoryEntry{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, query, response, timestamp FROM history ORDER BY timestamp DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, repository.StorageError("recent history", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, repository.StorageError("scan history", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.StorageError("recent history", err)
	}

	return entries, nil
}

func (r *HistoryRepo) Get(ctx context.Context, id int64) (*domain.HistoryEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, query, response, timestamp FROM history WHERE id = ?`, id)

	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHistoryNotFound
		}
		return nil, repository.StorageError("get history", err)
	}
	return e, nil
}

func (r *HistoryRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM history`).Scan(&n); err != nil {
		return 0, repository.StorageError("count history", err)
	}
	return n, nil
}

// Tables - имена таблиц в базе, нужны для проверки состояния
func (r *HistoryRepo) Tables(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, repository.StorageError("list tables", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, repository.StorageError("list tables", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *HistoryRepo) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*domain.HistoryEntry, error) {
	var (
		e  domain.HistoryEntry
		q  sql.NullString
		rs sql.NullString
		ts string
	)
	if err := s.Scan(&e.ID, &q, &rs, &ts); err != nil {
		return nil, err
	}

	t, err := parseTimestamp(ts)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}

	e.Query = q.String
	e.Response = rs.String
	e.Timestamp = t
	return &e, nil
}

// parseTimestamp понимает и наш формат, и записи без долей секунды
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{timestampLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unknown timestamp format")
}

var _ repository.HistoryRepository = (*HistoryRepo)(nil)
