package file

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/auth"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/frahmantamala/filehub/pkg/logger"
)

const (
	pagePerPage   = 20
	apiPerPage    = 10
	apiMaxPerPage = 100

	// multipartOverhead is the slack allowed on top of the file ceiling for
	// form fields and part headers.
	multipartOverhead = 1 << 20
	multipartMemory   = 32 << 20
)

type Handler struct {
	*transport.BaseHandler
	Service       ServiceAPI
	MaxUploadSize int64
}

func NewHandler(svc ServiceAPI, maxUploadSize int64) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = internal.DefaultMaxUploadSize
	}
	return &Handler{
		BaseHandler:   transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:       svc,
		MaxUploadSize: maxUploadSize,
	}
}

// UploadForm describes what the upload endpoint accepts.
func (h *Handler) UploadForm(w http.ResponseWriter, r *http.Request) {
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"max_size":           h.MaxUploadSize,
		"max_size_human":     HumanSize(h.MaxUploadSize),
		"allowed_extensions": AllowedExtensions(),
	})
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.WriteError(w, http.StatusRequestEntityTooLarge, "file exceeds the maximum upload size")
			return
		}
		h.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	part, header, err := r.FormFile("file")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "no file selected")
		return
	}
	defer part.Close()

	f, err := h.Service.Upload(r.Context(), user, UploadInput{
		OriginalName: header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Content:      part,
		Description:  r.FormValue("description"),
		IsPublic:     strings.EqualFold(r.FormValue("is_public"), "true"),
	})
	if err != nil {
		h.Logger.Debug("Upload: service error", "error", err, "filename", header.Filename)
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, UploadResponseV1{Message: "File uploaded successfully", File: f.ToV1()})
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id, ok := transport.IDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	f, content, err := h.Service.Download(r.Context(), user, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	defer content.Close()

	contentType := f.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.OriginalFilename}))
	if f.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(f.FileSize, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, content); err != nil {
		h.Logger.Warn("Download: stream interrupted", "file_id", f.ID, "error", err)
	}
}

// Delete serves /files/delete/{id}: besides delete access the caller must own
// the file or be an administrator.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, true)
}

func (h *Handler) APIDelete(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, false)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, ownerOrAdmin bool) {
	user, _ := auth.UserFromContext(r.Context())
	id, ok := transport.IDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	if err := h.Service.Delete(r.Context(), user, id, ownerOrAdmin); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "File deleted successfully"})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, transport.FixedPage(r, pagePerPage))
}

func (h *Handler) APIList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, transport.ParsePage(r, apiPerPage, apiMaxPerPage))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, p transport.Page) {
	user, _ := auth.UserFromContext(r.Context())
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	files, total, err := h.Service.List(r.Context(), user, ListQuery{Search: search, Limit: p.PerPage, Offset: p.Offset()})
	if err != nil {
		h.Logger.Error("List: service error", "error", err)
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToListV1(files, p, total, search))
}

func (h *Handler) Public(w http.ResponseWriter, r *http.Request) {
	h.public(w, r, transport.FixedPage(r, pagePerPage))
}

func (h *Handler) APIPublic(w http.ResponseWriter, r *http.Request) {
	h.public(w, r, transport.ParsePage(r, apiPerPage, apiMaxPerPage))
}

func (h *Handler) public(w http.ResponseWriter, r *http.Request, p transport.Page) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	files, total, err := h.Service.ListPublic(r.Context(), ListQuery{Search: search, Limit: p.PerPage, Offset: p.Offset()})
	if err != nil {
		h.Logger.Error("Public: service error", "error", err)
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ToListV1(files, p, total, search))
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id, ok := transport.IDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	f, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, f.ToDetailV1())
}

func (h *Handler) APIDetail(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id, ok := transport.IDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	f, err := h.Service.GetForRead(r.Context(), user, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, f.ToV1())
}

func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id, ok := transport.IDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	var req GrantRequestV1
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	g, err := h.Service.Grant(r.Context(), user, id, GrantInput{
		UserID:         req.UserID,
		PermissionType: strings.ToLower(strings.TrimSpace(req.PermissionType)),
		ExpiresAt:      req.ExpiresAt,
	})
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, g.ToV1())
}

func (h *Handler) ListGrants(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id, ok := transport.IDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	grants, err := h.Service.ListGrants(r.Context(), user, id)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}
	out := make([]*GrantResponseV1, 0, len(grants))
	for _, g := range grants {
		out = append(out, g.ToV1())
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"permissions": out})
}

func (h *Handler) Revoke(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.UserFromContext(r.Context())
	id, ok := transport.IDParam(r, "id")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	grantID, ok := transport.IDParam(r, "grantID")
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid permission id")
		return
	}

	if err := h.Service.Revoke(r.Context(), user, id, grantID); err != nil {
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Permission revoked"})
}

// Stats reports the caller's own usage.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id := user.ID
	stats, err := h.Service.Stats(r.Context(), &id)
	if err != nil {
		h.Logger.Error("Stats: service error", "error", err)
		h.WriteAppError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, StatsResponseV1{Stats: stats, TotalSizeHuman: HumanSize(stats.TotalSize)})
}
