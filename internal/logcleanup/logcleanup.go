package logcleanup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/filehub/pkg/logger"
)

const (
	DefaultRetentionDays = 90
	DefaultMaxFileSize   = 100 * 1024 * 1024
	DefaultKeepLines     = 1000
)

// Purger deletes access log rows older than the given number of days.
type Purger interface {
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

type Config struct {
	RetentionDays int
	Dirs          []string
	MaxFileSize   int64
	KeepLines     int
}

type Result struct {
	RowsDeleted    int64    `json:"rows_deleted"`
	FilesDeleted   []string `json:"files_deleted"`
	FilesTruncated []string `json:"files_truncated"`
}

type Cleaner struct {
	cfg    Config
	purger Purger
	logger *slog.Logger
	now    func() time.Time
}

func NewCleaner(cfg Config, purger Purger) *Cleaner {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = DefaultRetentionDays
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.KeepLines <= 0 {
		cfg.KeepLines = DefaultKeepLines
	}
	return &Cleaner{cfg: cfg, purger: purger, logger: logger.LoggerWrapper(), now: time.Now}
}

// Run purges old access log rows, then sweeps every log directory
// concurrently. A failing directory does not stop the others.
func (c *Cleaner) Run(ctx context.Context) (*Result, error) {
	res := &Result{FilesDeleted: []string{}, FilesTruncated: []string{}}

	if c.purger != nil {
		n, err := c.purger.PurgeOlderThan(ctx, c.cfg.RetentionDays)
		if err != nil {
			return res, fmt.Errorf("purge access logs: %w", err)
		}
		res.RowsDeleted = n
	}

	cutoff := c.now().AddDate(0, 0, -c.cfg.RetentionDays)
	sweeps := make([]sweep, len(c.cfg.Dirs))

	g, gctx := errgroup.WithContext(ctx)
	for i, dir := range c.cfg.Dirs {
		g.Go(func() error {
			sweeps[i] = c.sweepDir(gctx, dir, cutoff)
			return gctx.Err()
		})
	}
	waitErr := g.Wait()

	var errs []error
	for _, s := range sweeps {
		res.FilesDeleted = append(res.FilesDeleted, s.deleted...)
		res.FilesTruncated = append(res.FilesTruncated, s.truncated...)
		errs = append(errs, s.errs...)
	}
	if waitErr != nil {
		errs = append(errs, waitErr)
	}

	c.logger.Info("log cleanup finished",
		"rows_deleted", res.RowsDeleted,
		"files_deleted", len(res.FilesDeleted),
		"files_truncated", len(res.FilesTruncated),
		"errors", len(errs))
	return res, errors.Join(errs...)
}

type sweep struct {
	deleted   []string
	truncated []string
	errs      []error
}

func (c *Cleaner) sweepDir(ctx context.Context, dir string, cutoff time.Time) sweep {
	var s sweep
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return s
	}
	if err != nil {
		s.errs = append(s.errs, err)
		return s
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return s
		}
		name := e.Name()
		if e.IsDir() || !strings.Contains(name, ".log") {
			continue
		}
		path := filepath.Join(dir, name)
		info, err := e.Info()
		if err != nil {
			s.errs = append(s.errs, err)
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				c.logger.Error("failed to delete log file", "path", path, "error", err)
				s.errs = append(s.errs, err)
				continue
			}
			c.logger.Info("old log file deleted", "path", path)
			s.deleted = append(s.deleted, path)
			continue
		}

		if strings.HasSuffix(name, ".log") && info.Size() > c.cfg.MaxFileSize {
			if err := truncateToTail(path, c.cfg.KeepLines); err != nil {
				c.logger.Error("failed to truncate log file", "path", path, "error", err)
				s.errs = append(s.errs, err)
				continue
			}
			c.logger.Info("large log file truncated", "path", path, "kept_lines", c.cfg.KeepLines)
			s.truncated = append(s.truncated, path)
		}
	}
	return s
}

// truncateToTail rewrites path in place keeping only its last n lines.
func truncateToTail(path string, n int) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	// lines keep their terminator, so an unterminated last line stays that way
	ring := make([]string, n)
	count := 0
	br := bufio.NewReader(f)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			ring[count%n] = line
			count++
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}

	start, kept := 0, count
	if count > n {
		start, kept = count%n, n
	}

	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for i := 0; i < kept; i++ {
		w.WriteString(ring[(start+i)%n])
	}
	return w.Flush()
}
