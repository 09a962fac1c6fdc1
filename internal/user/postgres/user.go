package user

import (
	"context"
	"errors"

	"gorm.io/gorm"

	userdm "github.com/frahmantamala/filehub/internal/core/datamodel/user"
	"github.com/frahmantamala/filehub/internal/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) List(ctx context.Context, search string, limit, offset int) ([]userdm.User, int64, error) {
	base := func() *gorm.DB {
		db := r.db.WithContext(ctx).Model(&userdm.User{})
		if search != "" {
			like := "%" + search + "%"
			db = db.Where("(username LIKE ? OR email LIKE ?)", like, like)
		}
		return db
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []userdm.User
	err := base().
		Preload("Roles").
		Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) GetByID(ctx context.Context, userID int64) (*userdm.User, error) {
	var u userdm.User
	err := r.db.WithContext(ctx).Preload("Roles.Permissions").First(&u, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) ReplaceRoles(ctx context.Context, userID int64, roleNames []string) ([]string, error) {
	var applied []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u userdm.User
		if err := tx.First(&u, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return user.ErrNotFound
			}
			return err
		}

		var roles []userdm.Role
		if len(roleNames) > 0 {
			if err := tx.Where("name IN ?", roleNames).Find(&roles).Error; err != nil {
				return err
			}
		}
		assoc := tx.Model(&u).Association("Roles")
		if len(roles) == 0 {
			if err := assoc.Clear(); err != nil {
				return err
			}
		} else if err := assoc.Replace(roles); err != nil {
			return err
		}

		applied = make([]string, 0, len(roles))
		for _, role := range roles {
			applied = append(applied, role.Name)
		}
		return nil
	})
	return applied, err
}

func (r *Repository) SetActive(ctx context.Context, userID int64, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&userdm.User{}).
		Where("id = ?", userID).
		UpdateColumn("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return user.ErrNotFound
	}
	return nil
}
