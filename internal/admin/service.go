package admin

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/accesslog"
	"github.com/frahmantamala/filehub/internal/backup"
	"github.com/frahmantamala/filehub/internal/file"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/frahmantamala/filehub/pkg/logger"
)

var ErrBackupsUnavailable = internal.NewInternalError("backups are not configured", nil)

type Service struct {
	stats   StatsRepositoryAPI
	files   FileLister
	logs    LogReader
	backups BackupRunner
	logger  *slog.Logger
	now     func() time.Time
}

// NewService wires the dashboard. backups may be nil when no backup
// directory is configured.
func NewService(stats StatsRepositoryAPI, files FileLister, logs LogReader, backups BackupRunner) *Service {
	return &Service{
		stats:   stats,
		files:   files,
		logs:    logs,
		backups: backups,
		logger:  logger.LoggerWrapper(),
		now:     time.Now,
	}
}

func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	totals, err := s.stats.Totals(ctx)
	if err != nil {
		return nil, err
	}

	since := s.now().UTC().AddDate(0, 0, -UploadWindowDays)
	uploads, err := s.stats.UploadsSince(ctx, since)
	if err != nil {
		return nil, err
	}

	recent, err := s.logs.Recent(ctx, RecentLogCount)
	if err != nil {
		return nil, err
	}
	if recent == nil {
		recent = []*accesslog.Entry{}
	}

	return &Dashboard{Totals: *totals, DailyUploads: groupByDay(uploads), RecentLogs: recent}, nil
}

func (s *Service) Files(ctx context.Context, search string, p transport.Page) ([]*file.File, int64, error) {
	return s.files.ListAll(ctx, file.ListQuery{
		Search: strings.TrimSpace(search),
		Limit:  p.PerPage,
		Offset: p.Offset(),
	})
}

func (s *Service) Logs(ctx context.Context, p transport.Page) ([]*accesslog.Entry, int64, error) {
	return s.logs.ListLast30Days(ctx, p)
}

func (s *Service) Backups(_ context.Context) ([]backup.Archive, error) {
	if s.backups == nil {
		return nil, ErrBackupsUnavailable
	}
	archives, err := s.backups.List()
	if err != nil {
		return nil, err
	}
	if archives == nil {
		archives = []backup.Archive{}
	}
	return archives, nil
}

func (s *Service) RunBackup(ctx context.Context) (*backup.Report, error) {
	if s.backups == nil {
		return nil, ErrBackupsUnavailable
	}
	report, err := s.backups.Run(ctx)
	if err != nil {
		s.logger.Error("manual backup failed", "error", err)
	}
	return report, err
}
