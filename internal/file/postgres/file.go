package file

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/filehub/internal/auth"
	filedm "github.com/frahmantamala/filehub/internal/core/datamodel/file"
	userdm "github.com/frahmantamala/filehub/internal/core/datamodel/user"
	"github.com/frahmantamala/filehub/internal/file"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, f *filedm.File) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(f).Error
}

func (r *Repository) GetByID(ctx context.Context, fileID int64) (*filedm.File, error) {
	var f filedm.File
	err := r.db.WithContext(ctx).
		Preload("Uploader").
		Preload("Permissions").
		First(&f, fileID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, file.ErrFileNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *Repository) filtered(ctx context.Context, q file.ListQuery) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&filedm.File{})
	if q.OwnerID != nil {
		db = db.Where("uploaded_by = ?", *q.OwnerID)
	}
	if q.PublicOnly {
		db = db.Where("is_public = ?", true)
	}
	if q.Search != "" {
		like := "%" + q.Search + "%"
		db = db.Where("(original_filename LIKE ? OR description LIKE ?)", like, like)
	}
	return db
}

// List returns one page ordered newest first together with the unpaged total.
func (r *Repository) List(ctx context.Context, q file.ListQuery) ([]filedm.File, int64, error) {
	var total int64
	if err := r.filtered(ctx, q).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db := r.filtered(ctx, q).Preload("Uploader").Order("upload_date DESC").Order("id DESC")
	if q.Limit > 0 {
		db = db.Limit(q.Limit).Offset(q.Offset)
	}

	var rows []filedm.File
	if err := db.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) IncrementDownloads(ctx context.Context, fileID int64) error {
	return r.db.WithContext(ctx).
		Model(&filedm.File{}).
		Where("id = ?", fileID).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).Error
}

// DeleteWithBlob deletes grants and the row inside one transaction and only
// commits when removeBlob succeeds.
func (r *Repository) DeleteWithBlob(ctx context.Context, fileID int64, removeBlob func(ctx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", fileID).Delete(&filedm.FilePermission{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&filedm.File{}, fileID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return file.ErrFileNotFound
		}
		return removeBlob(ctx)
	})
}

// CreateGrant is idempotent per (file, user, type).
func (r *Repository) CreateGrant(ctx context.Context, g *filedm.FilePermission) (bool, error) {
	var existing filedm.FilePermission
	err := r.db.WithContext(ctx).
		Where("file_id = ? AND user_id = ? AND permission_type = ?", g.FileID, g.UserID, g.PermissionType).
		First(&existing).Error
	switch {
	case err == nil:
		*g = existing
		return false, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}

	if err := r.db.WithContext(ctx).Create(g).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) ListGrants(ctx context.Context, fileID int64) ([]filedm.FilePermission, error) {
	var rows []filedm.FilePermission
	err := r.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Order("granted_at ASC").Order("id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) DeleteGrant(ctx context.Context, fileID, grantID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND file_id = ?", grantID, fileID).
		Delete(&filedm.FilePermission{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return file.ErrGrantNotFound
	}
	return nil
}

type typeRow struct {
	FileType string
	Count    int64
	Size     int64
}

func (r *Repository) Stats(ctx context.Context, userID *int64) (*file.Stats, error) {
	scoped := func() *gorm.DB {
		db := r.db.WithContext(ctx).Model(&filedm.File{})
		if userID != nil {
			db = db.Where("uploaded_by = ?", *userID)
		}
		return db
	}

	stats := &file.Stats{FileTypes: map[string]file.TypeStat{}}
	if err := scoped().Count(&stats.TotalFiles).Error; err != nil {
		return nil, err
	}
	if err := scoped().Select("COALESCE(SUM(file_size), 0)").Scan(&stats.TotalSize).Error; err != nil {
		return nil, err
	}

	var rows []typeRow
	err := scoped().
		Select("file_type, COUNT(id) AS count, COALESCE(SUM(file_size), 0) AS size").
		Group("file_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.FileTypes[row.FileType] = file.TypeStat{Count: row.Count, Size: row.Size}
	}
	return stats, nil
}

func (r *Repository) UserExists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&userdm.User{}).Where("id = ?", userID).Count(&count).Error
	return count > 0, err
}

// LoadFileAccess implements auth.FileAccessLoader.
func (r *Repository) LoadFileAccess(ctx context.Context, fileID int64) (*auth.FileAccess, error) {
	var f filedm.File
	err := r.db.WithContext(ctx).
		Select("id", "uploaded_by", "is_public").
		Preload("Permissions").
		First(&f, fileID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrResourceNotFound
		}
		return nil, err
	}

	fa := &auth.FileAccess{FileID: f.ID, OwnerID: f.UploadedBy, IsPublic: f.IsPublic}
	for _, p := range f.Permissions {
		fa.Grants = append(fa.Grants, auth.Grant{UserID: p.UserID, PermissionType: p.PermissionType, ExpiresAt: p.ExpiresAt})
	}
	return fa, nil
}
