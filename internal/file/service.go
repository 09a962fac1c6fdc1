package file

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/auth"
	"github.com/frahmantamala/filehub/internal/core/common/validation"
	filedm "github.com/frahmantamala/filehub/internal/core/datamodel/file"
	"github.com/frahmantamala/filehub/internal/core/events"
	"github.com/frahmantamala/filehub/internal/storage"
	"github.com/frahmantamala/filehub/pkg/logger"
)

type Service struct {
	repo          RepositoryAPI
	store         storage.Storage
	publisher     events.Publisher
	maxUploadSize int64
	logger        *slog.Logger
	now           func() time.Time
}

func NewService(repo RepositoryAPI, store storage.Storage, publisher events.Publisher, maxUploadSize int64) *Service {
	if maxUploadSize <= 0 {
		maxUploadSize = internal.DefaultMaxUploadSize
	}
	return &Service{
		repo:          repo,
		store:         store,
		publisher:     publisher,
		maxUploadSize: maxUploadSize,
		logger:        logger.LoggerWrapper(),
		now:           time.Now,
	}
}

func (s *Service) MaxUploadSize() int64 {
	return s.maxUploadSize
}

// Upload validates the name, stores the blob, then inserts the row. The blob
// is removed again when the row cannot be written.
func (s *Service) Upload(ctx context.Context, user *auth.User, in UploadInput) (*File, error) {
	if user == nil {
		return nil, internal.ErrNotAuthenticated
	}
	if strings.TrimSpace(in.OriginalName) == "" || in.Content == nil {
		return nil, ErrEmptyFilename
	}
	if !AllowedExtension(in.OriginalName) {
		return nil, ErrExtension
	}
	original := SecureFilename(in.OriginalName)
	if original == "" {
		return nil, ErrEmptyFilename
	}
	if in.Size > s.maxUploadSize {
		return nil, ErrTooLarge
	}
	if appErr := validation.ValidateDescription(in.Description); appErr != nil {
		return nil, appErr
	}

	mimeType, content, err := DetectMIME(in.ContentType, in.Content)
	if err != nil {
		return nil, s.uploadFailed(ctx, user, original, err)
	}

	now := s.now().UTC()
	hashed, err := HashFilename(original, now)
	if err != nil {
		return nil, s.uploadFailed(ctx, user, original, err)
	}
	key := storage.Key(user.ID, hashed)

	written, err := s.store.Save(ctx, key, io.LimitReader(content, s.maxUploadSize+1))
	if err != nil {
		return nil, s.uploadFailed(ctx, user, original, err)
	}
	if written > s.maxUploadSize {
		s.removeBlob(ctx, key)
		return nil, ErrTooLarge
	}

	f := &File{
		OriginalFilename: original,
		Filename:         hashed,
		FilePath:         key,
		FileSize:         written,
		FileType:         ClassifyType(original, mimeType),
		MimeType:         mimeType,
		UploadDate:       now,
		UploadedBy:       user.ID,
		UploaderName:     user.Username,
		IsPublic:         in.IsPublic,
		Description:      in.Description,
	}

	row := f.ToDataModel()
	if err := s.repo.Create(ctx, row); err != nil {
		s.removeBlob(ctx, key)
		return nil, s.uploadFailed(ctx, user, original, err)
	}
	f.ID = row.ID

	s.logger.Info("file uploaded", "file_id", f.ID, "user_id", user.ID, "size", f.FileSize, "type", f.FileType)
	s.publish(ctx, events.NewFileEvent(events.EventTypeFileUploaded, f.ID, user.ID, f.OriginalFilename, sizeDetails(f.FileSize)))

	return f, nil
}

func (s *Service) uploadFailed(ctx context.Context, user *auth.User, name string, cause error) error {
	s.logger.Error("file upload failed", "user_id", user.ID, "filename", name, "error", cause)
	s.publish(ctx, events.NewFileEvent(events.EventTypeFileUploadFailed, 0, user.ID, name, cause.Error()))
	return internal.NewInternalError("upload failed, please retry", cause)
}

func (s *Service) removeBlob(ctx context.Context, key string) {
	if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Error("failed to remove orphaned blob", "key", key, "error", err)
	}
}

// loadForAccess returns the file when user may perform permissionType on it.
// A missing file is reported as a denial.
func (s *Service) loadForAccess(ctx context.Context, user *auth.User, fileID int64, permissionType string) (*File, error) {
	if user == nil {
		return nil, internal.ErrNotAuthenticated
	}
	row, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	f := FromDataModel(row)
	if !auth.Decide(user, f.Access(), permissionType) {
		return nil, ErrAccessDenied
	}
	return f, nil
}

func (s *Service) Download(ctx context.Context, user *auth.User, fileID int64) (*File, io.ReadCloser, error) {
	f, err := s.loadForAccess(ctx, user, fileID, auth.AccessRead)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.store.Open(ctx, f.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("blob missing for file", "file_id", f.ID, "key", f.FilePath)
			return nil, nil, ErrBlobMissing
		}
		return nil, nil, err
	}

	if err := s.repo.IncrementDownloads(ctx, f.ID); err != nil {
		rc.Close()
		return nil, nil, err
	}
	f.DownloadCount++

	s.publish(ctx, events.NewFileEvent(events.EventTypeFileDownloaded, f.ID, user.ID, f.OriginalFilename, sizeDetails(f.FileSize)))
	return f, rc, nil
}

// Delete removes the row, its grants and the blob together. ownerOrAdmin
// additionally restricts the call to the uploader or an administrator.
func (s *Service) Delete(ctx context.Context, user *auth.User, fileID int64, ownerOrAdmin bool) error {
	f, err := s.loadForAccess(ctx, user, fileID, auth.AccessDelete)
	if err != nil {
		return err
	}
	if ownerOrAdmin && f.UploadedBy != user.ID && !user.IsAdmin() {
		return ErrAccessDenied
	}

	err = s.repo.DeleteWithBlob(ctx, f.ID, func(ctx context.Context) error {
		return s.store.Delete(ctx, f.FilePath)
	})
	if err != nil {
		s.logger.Error("file delete failed", "file_id", f.ID, "error", err)
		return internal.NewInternalError("failed to delete file", err)
	}

	s.logger.Info("file deleted", "file_id", f.ID, "user_id", user.ID)
	s.publish(ctx, events.NewFileEvent(events.EventTypeFileDeleted, f.ID, user.ID, f.OriginalFilename, ""))
	return nil
}

// Get serves detail views: owner, public, admin or any grant holder.
func (s *Service) Get(ctx context.Context, user *auth.User, fileID int64) (*File, error) {
	if user == nil {
		return nil, internal.ErrNotAuthenticated
	}
	row, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	f := FromDataModel(row)
	if !auth.CanView(user, f.Access()) {
		return nil, ErrAccessDenied
	}
	s.publish(ctx, events.NewFileEvent(events.EventTypeFileViewed, f.ID, user.ID, f.OriginalFilename, ""))
	return f, nil
}

// GetForRead is the stricter detail used by the JSON API.
func (s *Service) GetForRead(ctx context.Context, user *auth.User, fileID int64) (*File, error) {
	return s.loadForAccess(ctx, user, fileID, auth.AccessRead)
}

// List returns the caller's own files, or every file for administrators.
func (s *Service) List(ctx context.Context, user *auth.User, q ListQuery) ([]*File, int64, error) {
	if user == nil {
		return nil, 0, internal.ErrNotAuthenticated
	}
	q.PublicOnly = false
	q.OwnerID = nil
	if !user.IsAdmin() {
		id := user.ID
		q.OwnerID = &id
	}
	return s.list(ctx, q)
}

// ListAll is the administrative listing without owner scoping.
func (s *Service) ListAll(ctx context.Context, q ListQuery) ([]*File, int64, error) {
	q.OwnerID = nil
	q.PublicOnly = false
	return s.list(ctx, q)
}

func (s *Service) ListPublic(ctx context.Context, q ListQuery) ([]*File, int64, error) {
	q.OwnerID = nil
	q.PublicOnly = true
	return s.list(ctx, q)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID int64) ([]*File, error) {
	files, _, err := s.list(ctx, ListQuery{OwnerID: &ownerID})
	return files, err
}

func (s *Service) list(ctx context.Context, q ListQuery) ([]*File, int64, error) {
	q.Search = strings.TrimSpace(q.Search)
	rows, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*File, 0, len(rows))
	for i := range rows {
		out = append(out, FromDataModel(&rows[i]))
	}
	return out, total, nil
}

func (s *Service) manageable(ctx context.Context, user *auth.User, fileID int64) (*File, error) {
	if user == nil {
		return nil, internal.ErrNotAuthenticated
	}
	row, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	f := FromDataModel(row)
	if f.UploadedBy != user.ID && !user.IsAdmin() {
		return nil, ErrAccessDenied
	}
	return f, nil
}

// Grant records an explicit permission. Re-granting the same (file, user,
// type) returns the existing grant.
func (s *Service) Grant(ctx context.Context, user *auth.User, fileID int64, in GrantInput) (*Grant, error) {
	f, err := s.manageable(ctx, user, fileID)
	if err != nil {
		return nil, err
	}
	if appErr := validation.ValidatePermissionType(in.PermissionType, auth.AccessTypes); appErr != nil {
		return nil, appErr
	}
	if in.UserID == f.UploadedBy {
		return nil, ErrSelfGrant
	}
	exists, err := s.repo.UserExists(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrGranteeAbsent
	}

	row := &filedm.FilePermission{
		FileID:         f.ID,
		UserID:         in.UserID,
		PermissionType: in.PermissionType,
		GrantedBy:      user.ID,
		ExpiresAt:      in.ExpiresAt,
	}
	created, err := s.repo.CreateGrant(ctx, row)
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("file permission granted", "file_id", f.ID, "grantee", in.UserID, "type", in.PermissionType, "granted_by", user.ID)
	}
	return GrantFromDataModel(row), nil
}

func (s *Service) ListGrants(ctx context.Context, user *auth.User, fileID int64) ([]*Grant, error) {
	f, err := s.manageable(ctx, user, fileID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListGrants(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	out := make([]*Grant, 0, len(rows))
	for i := range rows {
		out = append(out, GrantFromDataModel(&rows[i]))
	}
	return out, nil
}

func (s *Service) Revoke(ctx context.Context, user *auth.User, fileID, grantID int64) error {
	f, err := s.manageable(ctx, user, fileID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteGrant(ctx, f.ID, grantID); err != nil {
		return err
	}
	s.logger.Info("file permission revoked", "file_id", f.ID, "grant_id", grantID, "revoked_by", user.ID)
	return nil
}

func (s *Service) Stats(ctx context.Context, userID *int64) (*Stats, error) {
	return s.repo.Stats(ctx, userID)
}

func (s *Service) publish(ctx context.Context, e *events.FileEvent) {
	if s.publisher == nil {
		return
	}
	client := internal.ClientFromContext(ctx)
	e.WithClient(client.IP, client.UserAgent)
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish file event", "event_type", e.EventType(), "error", err)
	}
}

func sizeDetails(size int64) string {
	return "size: " + HumanSize(size)
}
