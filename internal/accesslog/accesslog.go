package accesslog

import (
	"context"
	"time"

	accesslogdm "github.com/frahmantamala/filehub/internal/core/datamodel/accesslog"
	"github.com/frahmantamala/filehub/internal/transport"
)

// Actions recorded next to the plain request rows.
const (
	ActionUpload       = "upload"
	ActionUploadFailed = "upload_failed"
	ActionDownload     = "download"
	ActionDelete       = "delete"
	ActionView         = "view"
	ActionLogin        = "login"
	ActionLoginFailed  = "login_failed"
	ActionLogout       = "logout"
	ActionRegister     = "register"
)

const (
	DefaultRetentionDays = 90
	RecentWindow         = 30 * 24 * time.Hour
	LogsPerPage          = 50
)

type ServiceAPI interface {
	Recent(ctx context.Context, n int) ([]*Entry, error)
	ListLast30Days(ctx context.Context, p transport.Page) ([]*Entry, int64, error)
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

type RepositoryAPI interface {
	Insert(ctx context.Context, row *accesslogdm.AccessLog) error
	Recent(ctx context.Context, n int) ([]accesslogdm.AccessLog, error)
	ListSince(ctx context.Context, since time.Time, limit, offset int) ([]accesslogdm.AccessLog, int64, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sink accepts entries for asynchronous persistence.
type Sink interface {
	Record(e *Entry)
}

type Entry struct {
	ID           int64     `json:"id"`
	UserID       *int64    `json:"user_id,omitempty"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	Endpoint     string    `json:"endpoint"`
	Method       string    `json:"method"`
	StatusCode   int       `json:"status_code"`
	ResponseTime float64   `json:"response_time"`
	CreatedAt    time.Time `json:"created_at"`
	FileID       *int64    `json:"file_id,omitempty"`
	Action       string    `json:"action,omitempty"`
	Details      string    `json:"details,omitempty"`
}

const (
	maxIPLen        = 45
	maxUserAgentLen = 500
	maxEndpointLen  = 255
	maxMethodLen    = 10
	maxActionLen    = 50
)

func (e *Entry) ToDataModel() *accesslogdm.AccessLog {
	ip := e.IPAddress
	if ip == "" {
		ip = "unknown"
	}
	return &accesslogdm.AccessLog{
		ID:           e.ID,
		UserID:       e.UserID,
		IPAddress:    truncate(ip, maxIPLen),
		UserAgent:    truncate(e.UserAgent, maxUserAgentLen),
		Endpoint:     truncate(e.Endpoint, maxEndpointLen),
		Method:       truncate(e.Method, maxMethodLen),
		StatusCode:   e.StatusCode,
		ResponseTime: e.ResponseTime,
		CreatedAt:    e.CreatedAt,
		FileID:       e.FileID,
		Action:       truncate(e.Action, maxActionLen),
		Details:      e.Details,
	}
}

func FromDataModel(dm *accesslogdm.AccessLog) *Entry {
	return &Entry{
		ID:           dm.ID,
		UserID:       dm.UserID,
		IPAddress:    dm.IPAddress,
		UserAgent:    dm.UserAgent,
		Endpoint:     dm.Endpoint,
		Method:       dm.Method,
		StatusCode:   dm.StatusCode,
		ResponseTime: dm.ResponseTime,
		CreatedAt:    dm.CreatedAt,
		FileID:       dm.FileID,
		Action:       dm.Action,
		Details:      dm.Details,
	}
}

func fromDataModels(rows []accesslogdm.AccessLog) []*Entry {
	out := make([]*Entry, 0, len(rows))
	for i := range rows {
		out = append(out, FromDataModel(&rows[i]))
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
