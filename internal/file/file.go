package file

import (
	"context"
	"io"
	"time"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/auth"
	filedm "github.com/frahmantamala/filehub/internal/core/datamodel/file"
)

type ServiceAPI interface {
	Upload(ctx context.Context, user *auth.User, in UploadInput) (*File, error)
	Download(ctx context.Context, user *auth.User, fileID int64) (*File, io.ReadCloser, error)
	Delete(ctx context.Context, user *auth.User, fileID int64, ownerOrAdmin bool) error
	Get(ctx context.Context, user *auth.User, fileID int64) (*File, error)
	GetForRead(ctx context.Context, user *auth.User, fileID int64) (*File, error)
	List(ctx context.Context, user *auth.User, q ListQuery) ([]*File, int64, error)
	ListPublic(ctx context.Context, q ListQuery) ([]*File, int64, error)
	Grant(ctx context.Context, user *auth.User, fileID int64, in GrantInput) (*Grant, error)
	ListGrants(ctx context.Context, user *auth.User, fileID int64) ([]*Grant, error)
	Revoke(ctx context.Context, user *auth.User, fileID, grantID int64) error
	Stats(ctx context.Context, userID *int64) (*Stats, error)
}

type RepositoryAPI interface {
	Create(ctx context.Context, f *filedm.File) error
	GetByID(ctx context.Context, fileID int64) (*filedm.File, error)
	List(ctx context.Context, q ListQuery) ([]filedm.File, int64, error)
	IncrementDownloads(ctx context.Context, fileID int64) error
	DeleteWithBlob(ctx context.Context, fileID int64, removeBlob func(ctx context.Context) error) error
	CreateGrant(ctx context.Context, g *filedm.FilePermission) (created bool, err error)
	ListGrants(ctx context.Context, fileID int64) ([]filedm.FilePermission, error)
	DeleteGrant(ctx context.Context, fileID, grantID int64) error
	Stats(ctx context.Context, userID *int64) (*Stats, error)
	UserExists(ctx context.Context, userID int64) (bool, error)
	LoadFileAccess(ctx context.Context, fileID int64) (*auth.FileAccess, error)
}

// File type classes.
const (
	TypeImage    = "image"
	TypeDocument = "document"
	TypeArchive  = "archive"
	TypeOther    = "other"
)

type File struct {
	ID               int64
	OriginalFilename string
	Filename         string
	FilePath         string
	FileSize         int64
	FileType         string
	MimeType         string
	UploadDate       time.Time
	UploadedBy       int64
	UploaderName     string
	IsPublic         bool
	DownloadCount    int64
	Description      string
	Grants           []*Grant
}

type Grant struct {
	ID             int64
	FileID         int64
	UserID         int64
	PermissionType string
	GrantedBy      int64
	GrantedAt      time.Time
	ExpiresAt      *time.Time
}

type UploadInput struct {
	OriginalName string
	ContentType  string
	// Size is the size declared by the client, -1 when unknown.
	Size        int64
	Content     io.Reader
	Description string
	IsPublic    bool
}

type GrantInput struct {
	UserID         int64
	PermissionType string
	ExpiresAt      *time.Time
}

type ListQuery struct {
	Search     string
	OwnerID    *int64
	PublicOnly bool
	Limit      int
	Offset     int
}

type TypeStat struct {
	Count int64 `json:"count"`
	Size  int64 `json:"size"`
}

type Stats struct {
	TotalFiles int64               `json:"total_files"`
	TotalSize  int64               `json:"total_size"`
	FileTypes  map[string]TypeStat `json:"file_types"`
}

var (
	ErrFileNotFound  = internal.ErrFileNotFound
	ErrAccessDenied  = internal.ErrFileAccessDenied
	ErrEmptyFilename = internal.ErrEmptyFilename
	ErrExtension     = internal.ErrExtensionDenied
	ErrTooLarge      = internal.ErrFileTooLarge
	ErrBlobMissing   = internal.ErrBlobMissing
	ErrGrantNotFound = internal.NewNotFoundError("Permission grant not found", internal.ErrCodeGrantNotFound)
	ErrSelfGrant     = internal.NewValidationError("Owner already has full access", internal.ErrCodeInvalidPermission)
	ErrGranteeAbsent = internal.NewNotFoundError("User not found", internal.ErrCodeUserNotFound)
)

func (f *File) ToDataModel() *filedm.File {
	return &filedm.File{
		ID:               f.ID,
		OriginalFilename: f.OriginalFilename,
		Filename:         f.Filename,
		FilePath:         f.FilePath,
		FileSize:         f.FileSize,
		FileType:         f.FileType,
		MimeType:         f.MimeType,
		UploadDate:       f.UploadDate,
		UploadedBy:       f.UploadedBy,
		IsPublic:         f.IsPublic,
		DownloadCount:    f.DownloadCount,
		Description:      f.Description,
	}
}

func FromDataModel(dm *filedm.File) *File {
	f := &File{
		ID:               dm.ID,
		OriginalFilename: dm.OriginalFilename,
		Filename:         dm.Filename,
		FilePath:         dm.FilePath,
		FileSize:         dm.FileSize,
		FileType:         dm.FileType,
		MimeType:         dm.MimeType,
		UploadDate:       dm.UploadDate,
		UploadedBy:       dm.UploadedBy,
		IsPublic:         dm.IsPublic,
		DownloadCount:    dm.DownloadCount,
		Description:      dm.Description,
	}
	if dm.Uploader != nil {
		f.UploaderName = dm.Uploader.Username
	}
	for i := range dm.Permissions {
		f.Grants = append(f.Grants, GrantFromDataModel(&dm.Permissions[i]))
	}
	return f
}

func GrantFromDataModel(dm *filedm.FilePermission) *Grant {
	return &Grant{
		ID:             dm.ID,
		FileID:         dm.FileID,
		UserID:         dm.UserID,
		PermissionType: dm.PermissionType,
		GrantedBy:      dm.GrantedBy,
		GrantedAt:      dm.GrantedAt,
		ExpiresAt:      dm.ExpiresAt,
	}
}

// Access builds the snapshot the permission evaluator works on.
func (f *File) Access() *auth.FileAccess {
	fa := &auth.FileAccess{FileID: f.ID, OwnerID: f.UploadedBy, IsPublic: f.IsPublic}
	for _, g := range f.Grants {
		fa.Grants = append(fa.Grants, auth.Grant{UserID: g.UserID, PermissionType: g.PermissionType, ExpiresAt: g.ExpiresAt})
	}
	return fa
}
