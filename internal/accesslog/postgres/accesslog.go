package accesslog

import (
	"context"
	"time"

	"gorm.io/gorm"

	accesslogdm "github.com/frahmantamala/filehub/internal/core/datamodel/accesslog"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, row *accesslogdm.AccessLog) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) Recent(ctx context.Context, n int) ([]accesslogdm.AccessLog, error) {
	var rows []accesslogdm.AccessLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").Order("id DESC").
		Limit(n).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) ListSince(ctx context.Context, since time.Time, limit, offset int) ([]accesslogdm.AccessLog, int64, error) {
	base := r.db.WithContext(ctx).Model(&accesslogdm.AccessLog{}).Where("created_at >= ?", since)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []accesslogdm.AccessLog
	err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&accesslogdm.AccessLog{})
	return res.RowsAffected, res.Error
}
