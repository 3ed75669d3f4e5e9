package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
)

type MockHistoryRepository struct {
	mu      sync.RWMutex
	entries []domain.HistoryEntry
	nextID  int64

	AppendErr   error
	RecentErr   error
	AppendCalls int
	Closed      bool
}

func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{nextID: 1}
}

func (m *MockHistoryRepository) WithAppendError(err error) *MockHistoryRepository {
	m.AppendErr = err
	return m
}

func (m *MockHistoryRepository) WithRecentError(err error) *MockHistoryRepository {
	m.RecentErr = err
	return m
}

func (m *MockHistoryRepository) Append(ctx context.Context, query, response string, ts time.Time) (*domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCalls++
	if m.AppendErr != nil {
		return nil, StorageError("append history", m.AppendErr)
	}

	entry := domain.HistoryEntry{
		ID:        m.nextID,
		Query:     query,
		Response:  response,
		Timestamp: ts,
	}
	m.nextID++
	m.entries = append(m.entries, entry)
	return &entry, nil
}

func (m *MockHistoryRepository) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.RecentErr != nil {
		return nil, StorageError("recent history", m.RecentErr)
	}
	if limit <= 0 {
		return []domain.HistoryEntry{}, nil
	}

	out := make([]domain.HistoryEntry, len(m.entries))
	copy(out, m.entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockHistoryRepository) Get(ctx context.Context, id int64) (*domain.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.ID == id {
			entry := e
			return &entry, nil
		}
	}
	return nil, domain.ErrHistoryNotFound
}

func (m *MockHistoryRepository) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.entries)), nil
}

func (m *MockHistoryRepository) Calls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.AppendCalls
}

func (m *MockHistoryRepository) Close() error {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	return nil
}

var _ HistoryRepository = (*MockHistoryRepository)(nil)
