package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/filehub/internal/auth"
	userdm "github.com/frahmantamala/filehub/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) withRoles(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Roles.Permissions")
}

// CreateUser inserts u and attaches roleName when that role exists.
func (r *Repository) CreateUser(ctx context.Context, u *userdm.User, roleName string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if roleName != "" {
			var role userdm.Role
			err := tx.Where("name = ?", roleName).First(&role).Error
			switch {
			case err == nil:
				u.Roles = append(u.Roles, role)
			case !errors.Is(err, gorm.ErrRecordNotFound):
				return err
			}
		}
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		return tx.Preload("Roles.Permissions").First(u, u.ID).Error
	})
}

func (r *Repository) GetByUsername(ctx context.Context, username string) (*userdm.User, error) {
	var u userdm.User
	if err := r.withRoles(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByID(ctx context.Context, userID int64) (*userdm.User, error) {
	var u userdm.User
	if err := r.withRoles(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) FindConflicts(ctx context.Context, username, email string) (bool, bool, error) {
	var usernameCount, emailCount int64
	db := r.db.WithContext(ctx).Model(&userdm.User{})
	if err := db.Where("username = ?", username).Count(&usernameCount).Error; err != nil {
		return false, false, err
	}
	db = r.db.WithContext(ctx).Model(&userdm.User{})
	if err := db.Where("email = ?", email).Count(&emailCount).Error; err != nil {
		return false, false, err
	}
	return usernameCount > 0, emailCount > 0, nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&userdm.User{}).
		Where("id = ?", userID).
		UpdateColumn("last_login", at).Error
}
