package integration

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
	pgRepo "github.com/kitbuilder587/ikar-assistant/internal/repository/postgres"
)

var testRepo *pgRepo.HistoryRepo

func TestMain(m *testing.M) {
	if os.Getenv("SHORT_TESTS") == "1" {
		os.Exit(0)
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		panic(err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	testRepo, err = pgRepo.Open(ctx, connStr)
	if err != nil {
		panic(err)
	}

	code := m.Run()

	testRepo.Close()
	pgContainer.Terminate(ctx)

	os.Exit(code)
}

func TestHistoryRepository_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 10, 20, 30, 0, time.UTC)

	entry, err := testRepo.Append(ctx, "Ошибка ФН", "Замените ФН", ts)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := testRepo.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Query != "Ошибка ФН" || got.Response != "Замените ФН" {
		t.Errorf("Get() = %+v", got)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, ts)
	}

	_, err = testRepo.Get(ctx, 999999)
	if !errors.Is(err, domain.ErrHistoryNotFound) {
		t.Errorf("Get() error = %v, want ErrHistoryNotFound", err)
	}
}

func TestHistoryRepository_Recent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	base := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, q := range []string{"a", "b", "c"} {
		if _, err := testRepo.Append(ctx, q, "r", base); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		base = base.Add(time.Minute)
	}

	entries, err := testRepo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent() len = %d, want 2", len(entries))
	}
	if entries[0].Query != "c" || entries[1].Query != "b" {
		t.Errorf("Recent() order = %q, %q; want c, b", entries[0].Query, entries[1].Query)
	}

	n, err := testRepo.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n < 3 {
		t.Errorf("Count() = %d, want >= 3", n)
	}
}
