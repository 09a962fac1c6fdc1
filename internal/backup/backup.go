package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/pkg/logger"
)

const (
	timestampLayout = "20060102_150405"
	dbSubdir        = "db"
	filesSubdir     = "files"

	KindDatabase = "database"
	KindFiles    = "files"
)

var ErrBackupFailed = internal.NewInternalError("backup failed", nil)

type Config struct {
	Dir           string
	RetentionDays int
	DumpCommand   string
	DatabaseDSN   string
	// DatabaseDriver selects the dump strategy; only postgres databases are
	// dumped.
	DatabaseDriver string
	UploadDir      string
	OffsitePrefix  string
}

// OffsiteUploader copies a finished archive to remote storage.
type OffsiteUploader interface {
	PutFile(ctx context.Context, key, localPath string) error
}

type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

type Archive struct {
	Name    string    `json:"name"`
	Kind    string    `json:"kind"`
	Path    string    `json:"-"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified_at"`
}

type Report struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Database  string    `json:"database,omitempty"`
	Files     string    `json:"files,omitempty"`
	Removed   int       `json:"removed"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
}

// commandRunner runs the dump binary with extra environment entries.
// Swapped in tests.
type commandRunner func(ctx context.Context, env []string, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), env...)
	return cmd.CombinedOutput()
}

type Service struct {
	cfg      Config
	offsite  OffsiteUploader
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	run      commandRunner
}

func NewService(cfg Config, offsite OffsiteUploader, notifier Notifier) *Service {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	if cfg.DumpCommand == "" {
		cfg.DumpCommand = "pg_dump"
	}
	if cfg.DatabaseDriver == "" {
		cfg.DatabaseDriver = internal.DatabaseDriverPostgres
	}
	return &Service{
		cfg:      cfg,
		offsite:  offsite,
		notifier: notifier,
		logger:   logger.LoggerWrapper(),
		now:      time.Now,
		run:      execRunner,
	}
}

func (s *Service) ensureDirs() error {
	for _, dir := range []string{s.cfg.Dir, filepath.Join(s.cfg.Dir, dbSubdir), filepath.Join(s.cfg.Dir, filesSubdir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create backup dir %s: %w", dir, err)
		}
	}
	return nil
}

// BackupDatabase dumps the database to <dir>/db/<name>_<ts>.sql, compresses
// it and removes the plain dump. It returns the .sql.gz path.
func (s *Service) BackupDatabase(ctx context.Context) (string, error) {
	if s.cfg.DatabaseDriver != internal.DatabaseDriverPostgres {
		return "", fmt.Errorf("database dump not supported for driver %q", s.cfg.DatabaseDriver)
	}
	if err := s.ensureDirs(); err != nil {
		return "", err
	}

	name := databaseName(s.cfg.DatabaseDSN)
	sqlPath := filepath.Join(s.cfg.Dir, dbSubdir, fmt.Sprintf("%s_%s.sql", name, s.now().Format(timestampLayout)))

	dsn, password := splitPassword(s.cfg.DatabaseDSN)
	var env []string
	if password != "" {
		env = append(env, "PGPASSWORD="+password)
	}

	out, err := s.run(ctx, env, s.cfg.DumpCommand, "--dbname="+dsn, "--no-owner", "--file="+sqlPath)
	if err != nil {
		os.Remove(sqlPath)
		s.logger.Error("database dump failed", "command", s.cfg.DumpCommand, "error", err, "output", strings.TrimSpace(string(out)))
		return "", fmt.Errorf("%s: %w", s.cfg.DumpCommand, err)
	}

	gzPath := sqlPath + ".gz"
	if err := gzipFile(sqlPath, gzPath); err != nil {
		return "", fmt.Errorf("compress dump: %w", err)
	}
	if err := os.Remove(sqlPath); err != nil {
		return "", fmt.Errorf("remove plain dump: %w", err)
	}

	s.logger.Info("database backup written", "path", gzPath)
	s.copyOffsite(ctx, dbSubdir, gzPath)
	return gzPath, nil
}

// BackupFiles archives the upload directory into
// <dir>/files/files_<ts>.tar.gz. A missing upload directory is skipped and
// reported with an empty path.
func (s *Service) BackupFiles(ctx context.Context) (string, error) {
	info, err := os.Stat(s.cfg.UploadDir)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("upload directory missing, skipping file backup", "dir", s.cfg.UploadDir)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("upload path %s is not a directory", s.cfg.UploadDir)
	}
	if err := s.ensureDirs(); err != nil {
		return "", err
	}

	tarPath := filepath.Join(s.cfg.Dir, filesSubdir, fmt.Sprintf("files_%s.tar.gz", s.now().Format(timestampLayout)))
	if err := tarGzDir(ctx, s.cfg.UploadDir, tarPath); err != nil {
		os.Remove(tarPath)
		return "", fmt.Errorf("archive uploads: %w", err)
	}

	s.logger.Info("file backup written", "path", tarPath)
	s.copyOffsite(ctx, filesSubdir, tarPath)
	return tarPath, nil
}

func (s *Service) copyOffsite(ctx context.Context, kind, path string) {
	if s.offsite == nil {
		return
	}
	key := strings.TrimSuffix(s.cfg.OffsitePrefix, "/")
	if key != "" {
		key += "/"
	}
	key += kind + "/" + filepath.Base(path)
	if err := s.offsite.PutFile(ctx, key, path); err != nil {
		s.logger.Error("offsite copy failed", "key", key, "error", err)
		return
	}
	s.logger.Info("offsite copy complete", "key", key)
}

// CleanupOld removes archives whose mtime is older than the retention window
// and returns how many were deleted.
func (s *Service) CleanupOld() (int, error) {
	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	removed := 0
	var errs []error

	patterns := []string{
		filepath.Join(s.cfg.Dir, dbSubdir, "*.sql.gz"),
		filepath.Join(s.cfg.Dir, filesSubdir, "files_*.tar.gz"),
	}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil {
				errs = append(errs, err)
				continue
			}
			removed++
			s.logger.Info("expired backup removed", "path", path)
		}
	}
	return removed, errors.Join(errs...)
}

// List returns the archives in the backup directory, newest first.
func (s *Service) List() ([]Archive, error) {
	var out []Archive
	sources := []struct {
		pattern string
		kind    string
	}{
		{filepath.Join(s.cfg.Dir, dbSubdir, "*.sql.gz"), KindDatabase},
		{filepath.Join(s.cfg.Dir, filesSubdir, "files_*.tar.gz"), KindFiles},
	}
	for _, src := range sources {
		matches, err := filepath.Glob(src.pattern)
		if err != nil {
			return nil, err
		}
		for _, path := range matches {
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			out = append(out, Archive{Name: filepath.Base(path), Kind: src.kind, Path: path, Size: info.Size(), ModTime: info.ModTime()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.After(out[j].ModTime) })
	return out, nil
}

// Run performs database then file backups, prunes old archives and sends a
// notification when mail is configured. Failures are reported, never retried.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	start := s.now()
	report := &Report{Success: true, StartedAt: start}
	var messages []string
	s.logger.Info("backup run started", "dir", s.cfg.Dir)

	if path, err := s.BackupDatabase(ctx); err != nil {
		report.Success = false
		messages = append(messages, "database backup failed: "+err.Error())
	} else {
		report.Database = path
		messages = append(messages, "database backup succeeded")
	}

	if path, err := s.BackupFiles(ctx); err != nil {
		report.Success = false
		messages = append(messages, "file backup failed: "+err.Error())
	} else {
		report.Files = path
		if path == "" {
			messages = append(messages, "file backup skipped")
		} else {
			messages = append(messages, "file backup succeeded")
		}
	}

	removed, err := s.CleanupOld()
	report.Removed = removed
	if err != nil {
		s.logger.Error("backup cleanup failed", "error", err)
	}

	report.Message = strings.Join(messages, "; ")
	report.Duration = s.now().Sub(start).Round(time.Millisecond).String()
	if report.Success {
		s.logger.Info("backup run finished", "message", report.Message, "removed", removed)
	} else {
		s.logger.Error("backup run finished with failures", "message", report.Message, "removed", removed)
	}

	s.notify(ctx, report)

	if !report.Success {
		return report, internal.NewInternalError(report.Message, ErrBackupFailed)
	}
	return report, nil
}

func (s *Service) notify(ctx context.Context, report *Report) {
	if s.notifier == nil {
		return
	}
	status := "succeeded"
	if !report.Success {
		status = "failed"
	}
	subject := "filehub backup " + status
	body := fmt.Sprintf("Backup run %s.\n\nTime: %s\nStatus: %s\nMessage: %s\n\nThis message was sent automatically.\n",
		status, report.StartedAt.Format("2006-01-02 15:04:05"), status, report.Message)

	if err := s.notifier.Notify(ctx, subject, body); err != nil {
		s.logger.Error("backup notification failed", "error", err)
		return
	}
	s.logger.Info("backup notification sent")
}

// databaseName extracts the database name from a URL or key=value DSN.
func databaseName(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		if name := strings.Trim(u.Path, "/"); name != "" {
			return name
		}
	}
	for _, field := range strings.Fields(dsn) {
		if k, v, ok := strings.Cut(field, "="); ok && k == "dbname" && v != "" {
			return strings.Trim(v, "'")
		}
	}
	return "database"
}

// splitPassword removes the password from a URL or key=value DSN so it can
// travel in PGPASSWORD instead of the process arguments.
func splitPassword(dsn string) (string, string) {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		password, ok := u.User.Password()
		if !ok {
			return dsn, ""
		}
		u.User = url.User(u.User.Username())
		return u.String(), password
	}

	var password string
	fields := strings.Fields(dsn)
	kept := fields[:0]
	for _, field := range fields {
		if k, v, ok := strings.Cut(field, "="); ok && k == "password" {
			password = strings.Trim(v, "'")
			continue
		}
		kept = append(kept, field)
	}
	if password == "" {
		return dsn, ""
	}
	return strings.Join(kept, " "), password
}
