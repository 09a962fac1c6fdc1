package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/frahmantamala/filehub/internal/auth"
	userdm "github.com/frahmantamala/filehub/internal/core/datamodel/user"
)

type SeedAdmin struct {
	Username   string
	Email      string
	Password   string
	BCryptCost int
}

type SeedResult struct {
	Permissions  int
	Roles        int
	AdminCreated bool
}

// Seed installs the permission catalog and role set, then makes sure the
// admin account exists with the admin role. Running it again is harmless.
func Seed(ctx context.Context, db *gorm.DB, admin SeedAdmin) (*SeedResult, error) {
	res := &SeedResult{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms := make(map[string]userdm.Permission, len(auth.Permissions))
		for _, def := range auth.Permissions {
			p := userdm.Permission{Name: def.Name}
			if err := tx.Where(userdm.Permission{Name: def.Name}).
				Attrs(userdm.Permission{Description: def.Description}).
				FirstOrCreate(&p).Error; err != nil {
				return fmt.Errorf("seed permission %s: %w", def.Name, err)
			}
			perms[def.Name] = p
			res.Permissions++
		}

		for _, def := range auth.Roles {
			role := userdm.Role{Name: def.Name}
			if err := tx.Where(userdm.Role{Name: def.Name}).
				Attrs(userdm.Role{Description: def.Description}).
				FirstOrCreate(&role).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", def.Name, err)
			}
			granted := make([]userdm.Permission, 0, len(def.Permissions))
			for _, name := range def.Permissions {
				granted = append(granted, perms[name])
			}
			if err := tx.Model(&role).Association("Permissions").Replace(granted); err != nil {
				return fmt.Errorf("seed role %s permissions: %w", def.Name, err)
			}
			res.Roles++
		}

		if admin.Username == "" {
			return nil
		}
		created, err := ensureAdmin(tx, admin)
		res.AdminCreated = created
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func ensureAdmin(tx *gorm.DB, admin SeedAdmin) (bool, error) {
	var role userdm.Role
	if err := tx.Where("name = ?", auth.RoleAdmin).First(&role).Error; err != nil {
		return false, err
	}

	var u userdm.User
	err := tx.Where("username = ?", admin.Username).First(&u).Error
	switch {
	case err == nil:
		return false, tx.Model(&u).Association("Roles").Append(&role)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return false, err
	}

	if admin.Password == "" {
		return false, errors.New("admin password is required to create the admin account")
	}
	hash, err := auth.HashPassword(admin.Password, admin.BCryptCost)
	if err != nil {
		return false, err
	}
	u = userdm.User{
		Username:     admin.Username,
		Email:        admin.Email,
		PasswordHash: hash,
		IsActive:     true,
		Roles:        []userdm.Role{role},
	}
	if err := tx.Create(&u).Error; err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
