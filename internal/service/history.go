package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
	"github.com/kitbuilder587/ikar-assistant/internal/repository"
)

type HistoryService interface {
	Recent(ctx context.Context) ([]domain.HistoryEntry, error)
	Get(ctx context.Context, id int64) (*domain.HistoryEntry, error)
}

type historyService struct {
	repo   repository.HistoryRepository
	limit  int
	logger *zap.Logger
}

func NewHistoryService(repo repository.HistoryRepository, limit int, logger *zap.Logger) HistoryService {
	if limit <= 0 {
		limit = domain.DefaultHistoryLimit
	}
	return &historyService{repo: repo, limit: limit, logger: logger}
}

func (s *historyService) Recent(ctx context.Context) ([]domain.HistoryEntry, error) {
	entries, err := s.repo.Recent(ctx, s.limit)
	if err != nil {
		s.logger.Error("failed to load history", zap.Error(err))
		return nil, err
	}
	return entries, nil
}

func (s *historyService) Get(ctx context.Context, id int64) (*domain.HistoryEntry, error) {
	return s.repo.Get(ctx, id)
}
