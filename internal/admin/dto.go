package admin

import (
	"github.com/dustin/go-humanize"

	"github.com/frahmantamala/filehub/internal/accesslog"
	"github.com/frahmantamala/filehub/internal/backup"
	"github.com/frahmantamala/filehub/internal/transport"
)

type DashboardResponseV1 struct {
	*Dashboard
	TotalSizeHuman string `json:"total_size_human"`
}

type LogListResponseV1 struct {
	Logs       []*accesslog.Entry   `json:"logs"`
	Pagination transport.Pagination `json:"pagination"`
}

type ArchiveResponseV1 struct {
	backup.Archive
	SizeHuman string `json:"size_human"`
}

type BackupListResponseV1 struct {
	Backups []ArchiveResponseV1 `json:"backups"`
}

func (d *Dashboard) ToV1() DashboardResponseV1 {
	return DashboardResponseV1{Dashboard: d, TotalSizeHuman: humanize.IBytes(uint64(d.Size))}
}

func toArchivesV1(archives []backup.Archive) BackupListResponseV1 {
	out := make([]ArchiveResponseV1, 0, len(archives))
	for _, a := range archives {
		out = append(out, ArchiveResponseV1{Archive: a, SizeHuman: humanize.IBytes(uint64(a.Size))})
	}
	return BackupListResponseV1{Backups: out}
}
