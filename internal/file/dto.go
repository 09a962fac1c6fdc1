package file

import (
	"strconv"
	"time"

	"github.com/frahmantamala/filehub/internal/transport"
)

type FileResponseV1 struct {
	ID            int64     `json:"id"`
	Filename      string    `json:"filename"`
	Size          int64     `json:"size"`
	SizeHuman     string    `json:"size_human"`
	Type          string    `json:"type"`
	MimeType      string    `json:"mime_type"`
	UploadDate    time.Time `json:"upload_date"`
	UploadedBy    string    `json:"uploaded_by"`
	IsPublic      bool      `json:"is_public"`
	DownloadCount int64     `json:"download_count"`
	Description   string    `json:"description"`
	DownloadURL   string    `json:"download_url"`
}

type FileDetailResponseV1 struct {
	FileResponseV1
	OwnerID     int64              `json:"owner_id"`
	Permissions []*GrantResponseV1 `json:"permissions,omitempty"`
}

type FileListResponseV1 struct {
	Files      []*FileResponseV1    `json:"files"`
	Pagination transport.Pagination `json:"pagination"`
	Search     string               `json:"search,omitempty"`
}

type UploadResponseV1 struct {
	Message string          `json:"message"`
	File    *FileResponseV1 `json:"file"`
}

type GrantRequestV1 struct {
	UserID         int64      `json:"user_id"`
	PermissionType string     `json:"permission_type"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

type GrantResponseV1 struct {
	ID             int64      `json:"id"`
	FileID         int64      `json:"file_id"`
	UserID         int64      `json:"user_id"`
	PermissionType string     `json:"permission_type"`
	GrantedBy      int64      `json:"granted_by"`
	GrantedAt      time.Time  `json:"granted_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

type StatsResponseV1 struct {
	*Stats
	TotalSizeHuman string `json:"total_size_human"`
}

func (f *File) ToV1() *FileResponseV1 {
	return &FileResponseV1{
		ID:            f.ID,
		Filename:      f.OriginalFilename,
		Size:          f.FileSize,
		SizeHuman:     HumanSize(f.FileSize),
		Type:          f.FileType,
		MimeType:      f.MimeType,
		UploadDate:    f.UploadDate,
		UploadedBy:    f.UploaderName,
		IsPublic:      f.IsPublic,
		DownloadCount: f.DownloadCount,
		Description:   f.Description,
		DownloadURL:   "/api/files/" + strconv.FormatInt(f.ID, 10) + "/download",
	}
}

func (f *File) ToDetailV1() *FileDetailResponseV1 {
	out := &FileDetailResponseV1{FileResponseV1: *f.ToV1(), OwnerID: f.UploadedBy}
	for _, g := range f.Grants {
		out.Permissions = append(out.Permissions, g.ToV1())
	}
	return out
}

func (g *Grant) ToV1() *GrantResponseV1 {
	return &GrantResponseV1{
		ID:             g.ID,
		FileID:         g.FileID,
		UserID:         g.UserID,
		PermissionType: g.PermissionType,
		GrantedBy:      g.GrantedBy,
		GrantedAt:      g.GrantedAt,
		ExpiresAt:      g.ExpiresAt,
	}
}

func ToListV1(files []*File, p transport.Page, total int64, search string) FileListResponseV1 {
	out := make([]*FileResponseV1, 0, len(files))
	for _, f := range files {
		out = append(out, f.ToV1())
	}
	return FileListResponseV1{Files: out, Pagination: transport.NewPagination(p, total), Search: search}
}
