package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/ikar-assistant/internal/domain"
	"github.com/kitbuilder587/ikar-assistant/internal/metrics"
	"github.com/kitbuilder587/ikar-assistant/internal/repository"
)

const (
	linksHeader  = "Дополнительные источники информации:\n"
	noLinksText  = "Не удалось найти дополнительные источники информации."
	searchFailed = "Ошибка при поиске: "
)

type Responder interface {
	Respond(ctx context.Context, query string) (string, error)
	Name() string
}

type LinkFinder interface {
	FindLinks(ctx context.Context, query string) ([]domain.SearchResultLink, error)
	Name() string
}

type SearchService interface {
	// RunSearch - проверка, сборка ответа и запись в историю за один вызов
	RunSearch(ctx context.Context, query string) (*domain.SearchOutcome, error)
	Compose(ctx context.Context, req domain.SearchRequest) (*domain.SearchOutcome, error)
	// Record пишет (запрос, итоговый текст, время) в историю, даже если ответ деградировал
	Record(ctx context.Context, outcome *domain.SearchOutcome) (*domain.HistoryEntry, error)
}

type SearchServiceDeps struct {
	Responder Responder
	Links     LinkFinder
	History   repository.HistoryRepository
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

type searchService struct {
	responder Responder
	links     LinkFinder
	history   repository.HistoryRepository
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewSearchService(deps SearchServiceDeps) SearchService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &searchService{
		responder: deps.Responder,
		links:     deps.Links,
		history:   deps.History,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		now:       deps.Now,
	}
}

func (s *searchService) RunSearch(ctx context.Context, query string) (*domain.SearchOutcome, error) {
	req := domain.SearchRequest{Query: query}
	if err := req.Validate(); err != nil {
		if s.metrics != nil {
			s.metrics.RecordRequest("search", "validation_error", 0)
		}
		return nil, err
	}
	req.Sanitize()

	outcome, err := s.Compose(ctx, req)
	if err != nil {
		return nil, err
	}

	if _, err := s.Record(ctx, outcome); err != nil {
		// результат всё равно отдаём, ошибку записи показывает оболочка
		return outcome, err
	}
	return outcome, nil
}

func (s *searchService) Compose(ctx context.Context, req domain.SearchRequest) (*domain.SearchOutcome, error) {
	start := time.Now()

	if s.metrics != nil {
		s.metrics.IncRequestsInFlight()
		defer s.metrics.DecRequestsInFlight()
	}

	s.logger.Info("composing answer",
		zap.Int("query_length", len([]rune(req.Query))),
		zap.String("responder", s.responder.Name()),
		zap.String("links", s.links.Name()),
	)

	var (
		answer       string
		responderErr error
		links        []domain.SearchResultLink
		linksErr     error
	)

	// ответ и ссылки независимы, ошибка одного не отменяет другое
	var g errgroup.Group
	g.Go(func() error {
		answer, responderErr = s.responder.Respond(ctx, req.Query)
		return nil
	})
	g.Go(func() error {
		links, linksErr = s.links.FindLinks(ctx, req.Query)
		return nil
	})
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		if s.metrics != nil {
			s.metrics.RecordRequest("search", "cancelled", time.Since(start))
		}
		return nil, err
	}

	if strings.TrimSpace(answer) == "" {
		cause := responderErr
		if cause == nil {
			cause = fmt.Errorf("empty answer from %s", s.responder.Name())
		}
		answer = searchFailed + cause.Error()
		links = nil
		if responderErr == nil {
			responderErr = domain.NewFailure(domain.FailureUpstreamUnavailable, "respond", domain.ErrResponderFailed)
		}
	}

	if linksErr != nil {
		links = nil
	}
	if len(links) > 5 {
		links = links[:5]
	}

	outcome := &domain.SearchOutcome{
		Query:        req.Query,
		Answer:       answer,
		Links:        links,
		ResponseText: FormatResponse(answer, links),
		CreatedAt:    s.now(),
		ResponderErr: responderErr,
		LinksErr:     linksErr,
	}

	status := "success"
	if outcome.Degraded() {
		status = "degraded"
		s.logger.Warn("answer degraded",
			zap.NamedError("responder_error", responderErr),
			zap.NamedError("links_error", linksErr),
		)
	}
	if s.metrics != nil {
		s.metrics.RecordRequest("search", status, time.Since(start))
	}

	s.logger.Info("answer composed",
		zap.Int("links", len(links)),
		zap.Duration("duration", time.Since(start)),
	)

	return outcome, nil
}

func (s *searchService) Record(ctx context.Context, outcome *domain.SearchOutcome) (*domain.HistoryEntry, error) {
	entry, err := s.history.Append(ctx, outcome.Query, outcome.ResponseText, s.now())
	if err != nil {
		s.logger.Error("failed to record history", zap.Error(err))
		if s.metrics != nil {
			s.metrics.RecordHistoryWrite("error")
		}
		if domain.KindOf(err) == "" {
			err = repository.StorageError("record history", err)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordHistoryWrite("ok")
	}
	return entry, nil
}

// FormatResponse собирает текст для показа и истории. Номера ссылок совпадают с позициями в списке.
func FormatResponse(answer string, links []domain.SearchResultLink) string {
	var sb strings.Builder
	sb.WriteString(answer)
	sb.WriteString("\n\n")

	if len(links) == 0 {
		sb.WriteString(noLinksText)
		return sb.String()
	}

	sb.WriteString(linksHeader)
	for i, l := range links {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, l.Title)
	}
	return sb.String()
}
