package accesslog

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/frahmantamala/filehub/pkg/logger"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo RepositoryAPI) *Service {
	return &Service{
		repo:   repo,
		logger: logger.LoggerWrapper(),
		now:    time.Now,
	}
}

func (s *Service) Recent(ctx context.Context, n int) ([]*Entry, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.repo.Recent(ctx, n)
	if err != nil {
		return nil, err
	}
	return fromDataModels(rows), nil
}

// ListLast30Days pages through the last month of entries, newest first.
func (s *Service) ListLast30Days(ctx context.Context, p transport.Page) ([]*Entry, int64, error) {
	since := s.now().UTC().Add(-RecentWindow)
	rows, total, err := s.repo.ListSince(ctx, since, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	return fromDataModels(rows), total, nil
}

// PurgeOlderThan deletes entries created more than days ago.
func (s *Service) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = DefaultRetentionDays
	}
	cutoff := s.now().UTC().AddDate(0, 0, -days)
	deleted, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("access log purge failed", "cutoff", cutoff, "error", err)
		return 0, err
	}
	s.logger.Info("access logs purged", "deleted", deleted, "cutoff", cutoff)
	return deleted, nil
}
