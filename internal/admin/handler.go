package admin

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/filehub/internal/accesslog"
	"github.com/frahmantamala/filehub/internal/file"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/frahmantamala/filehub/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     svc,
	}
}

// Dashboard handles GET /admin/
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Service.Dashboard(r.Context())
	if err != nil {
		h.Logger.Error("Dashboard: service error", "error", err)
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, d.ToV1())
}

// Files handles GET /admin/files
func (h *Handler) Files(w http.ResponseWriter, r *http.Request) {
	p := transport.FixedPage(r, FilesPerPage)
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	files, total, err := h.Service.Files(r.Context(), search, p)
	if err != nil {
		h.Logger.Error("Files: service error", "error", err)
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, file.ToListV1(files, p, total, search))
}

// Logs handles GET /admin/logs
func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	p := transport.FixedPage(r, accesslog.LogsPerPage)

	logs, total, err := h.Service.Logs(r.Context(), p)
	if err != nil {
		h.Logger.Error("Logs: service error", "error", err)
		h.WriteAppError(w, err)
		return
	}
	if logs == nil {
		logs = []*accesslog.Entry{}
	}
	h.WriteJSON(w, http.StatusOK, LogListResponseV1{Logs: logs, Pagination: transport.NewPagination(p, total)})
}

// Backups handles GET /admin/backup
func (h *Handler) Backups(w http.ResponseWriter, r *http.Request) {
	archives, err := h.Service.Backups(r.Context())
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, toArchivesV1(archives))
}

// RunBackup handles POST /admin/backup
func (h *Handler) RunBackup(w http.ResponseWriter, r *http.Request) {
	report, err := h.Service.RunBackup(r.Context())
	if err != nil && report == nil {
		h.WriteAppError(w, err)
		return
	}
	status := http.StatusOK
	if !report.Success {
		status = http.StatusInternalServerError
	}
	h.WriteJSON(w, status, report)
}
