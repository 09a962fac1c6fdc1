package admin

import (
	"context"
	"time"

	"github.com/frahmantamala/filehub/internal/accesslog"
	"github.com/frahmantamala/filehub/internal/backup"
	"github.com/frahmantamala/filehub/internal/file"
	"github.com/frahmantamala/filehub/internal/transport"
)

const (
	FilesPerPage     = 20
	RecentLogCount   = 10
	UploadWindowDays = 7
	dateLayout       = "2006-01-02"
)

type ServiceAPI interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
	Files(ctx context.Context, search string, p transport.Page) ([]*file.File, int64, error)
	Logs(ctx context.Context, p transport.Page) ([]*accesslog.Entry, int64, error)
	Backups(ctx context.Context) ([]backup.Archive, error)
	RunBackup(ctx context.Context) (*backup.Report, error)
}

// StatsRepositoryAPI runs the dashboard aggregates.
type StatsRepositoryAPI interface {
	Totals(ctx context.Context) (*Totals, error)
	UploadsSince(ctx context.Context, since time.Time) ([]Upload, error)
}

type FileLister interface {
	ListAll(ctx context.Context, q file.ListQuery) ([]*file.File, int64, error)
}

type LogReader interface {
	Recent(ctx context.Context, n int) ([]*accesslog.Entry, error)
	ListLast30Days(ctx context.Context, p transport.Page) ([]*accesslog.Entry, int64, error)
}

type BackupRunner interface {
	Run(ctx context.Context) (*backup.Report, error)
	List() ([]backup.Archive, error)
}

type Totals struct {
	Users int64 `db:"total_users" json:"total_users"`
	Files int64 `db:"total_files" json:"total_files"`
	Size  int64 `db:"total_size" json:"total_size"`
}

type Upload struct {
	UploadDate time.Time `db:"upload_date"`
	FileSize   int64     `db:"file_size"`
}

type DailyUploads struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
	Size  int64  `json:"size"`
}

type Dashboard struct {
	Totals
	DailyUploads []DailyUploads     `json:"daily_uploads"`
	RecentLogs   []*accesslog.Entry `json:"recent_logs"`
}

// groupByDay buckets uploads by UTC calendar day, oldest first. Days without
// uploads are omitted.
func groupByDay(uploads []Upload) []DailyUploads {
	out := []DailyUploads{}
	index := map[string]int{}
	for _, u := range uploads {
		day := u.UploadDate.UTC().Format(dateLayout)
		i, ok := index[day]
		if !ok {
			i = len(out)
			index[day] = i
			out = append(out, DailyUploads{Date: day})
		}
		out[i].Count++
		out[i].Size += u.FileSize
	}
	return out
}
