package user

import (
	"context"
	"time"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/auth"
	userdm "github.com/frahmantamala/filehub/internal/core/datamodel/user"
	"github.com/frahmantamala/filehub/internal/file"
	"github.com/frahmantamala/filehub/internal/transport"
)

const UsersPerPage = 20

type ServiceAPI interface {
	List(ctx context.Context, search string, p transport.Page) ([]*User, int64, error)
	Detail(ctx context.Context, userID int64) (*Detail, error)
	ReplaceRoles(ctx context.Context, actor *auth.User, userID int64, roles []string) (*User, error)
	SetActive(ctx context.Context, actor *auth.User, userID int64, active bool) (*User, error)
}

type RepositoryAPI interface {
	List(ctx context.Context, search string, limit, offset int) ([]userdm.User, int64, error)
	GetByID(ctx context.Context, userID int64) (*userdm.User, error)
	// ReplaceRoles swaps the user's roles for the named ones that exist and
	// returns the names actually applied.
	ReplaceRoles(ctx context.Context, userID int64, roleNames []string) ([]string, error)
	SetActive(ctx context.Context, userID int64, active bool) error
}

// FileLister supplies the uploads shown on the user detail view.
type FileLister interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]*file.File, error)
}

type User struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	IsActive    bool       `json:"is_active"`
	LastLogin   *time.Time `json:"last_login,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	Roles       []string   `json:"roles"`
	Permissions []string   `json:"permissions,omitempty"`
}

type Detail struct {
	User  *User
	Files []*file.File
}

var (
	ErrNotFound       = internal.ErrUserNotFound
	ErrSelfDeactivate = internal.NewValidationError("You cannot deactivate your own account", internal.ErrCodeValidationFailed)
)

func FromDataModel(dm *userdm.User) *User {
	return &User{
		ID:          dm.ID,
		Username:    dm.Username,
		Email:       dm.Email,
		IsActive:    dm.IsActive,
		LastLogin:   dm.LastLogin,
		CreatedAt:   dm.CreatedAt,
		Roles:       dm.RoleNames(),
		Permissions: dm.PermissionNames(),
	}
}
