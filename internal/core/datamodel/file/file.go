package file

import (
	"time"

	"github.com/frahmantamala/filehub/internal/core/datamodel/user"
)

type File struct {
	ID               int64     `gorm:"primaryKey"`
	OriginalFilename string    `gorm:"column:original_filename;size:255;not null"`
	Filename         string    `gorm:"column:filename;size:255;uniqueIndex;not null"`
	FilePath         string    `gorm:"column:file_path;size:500;not null"`
	FileSize         int64     `gorm:"column:file_size;not null"`
	FileType         string    `gorm:"column:file_type;size:50"`
	MimeType         string    `gorm:"column:mime_type;size:100"`
	UploadDate       time.Time `gorm:"column:upload_date;index;not null"`
	UploadedBy       int64     `gorm:"column:uploaded_by;index;not null"`
	IsPublic         bool      `gorm:"column:is_public;not null;default:false"`
	DownloadCount    int64     `gorm:"column:download_count;not null;default:0"`
	Description      string    `gorm:"column:description;type:text"`

	Uploader    *user.User       `gorm:"foreignKey:UploadedBy"`
	Permissions []FilePermission `gorm:"foreignKey:FileID"`
}

func (File) TableName() string { return "files" }

type FilePermission struct {
	ID             int64      `gorm:"primaryKey"`
	FileID         int64      `gorm:"column:file_id;index;not null"`
	UserID         int64      `gorm:"column:user_id;index;not null"`
	PermissionType string     `gorm:"column:permission_type;size:20;not null"`
	GrantedBy      int64      `gorm:"column:granted_by;not null"`
	GrantedAt      time.Time  `gorm:"column:granted_at;autoCreateTime"`
	ExpiresAt      *time.Time `gorm:"column:expires_at"`
}

func (FilePermission) TableName() string { return "file_permissions" }
