package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/filehub/internal/transport"
)

// File access types.
const (
	AccessRead   = "read"
	AccessWrite  = "write"
	AccessDelete = "delete"
)

var AccessTypes = []string{AccessRead, AccessWrite, AccessDelete}

type Grant struct {
	UserID         int64
	PermissionType string
	ExpiresAt      *time.Time
}

// FileAccess is a read-only snapshot of the attributes that decide access
// to one file.
type FileAccess struct {
	FileID   int64
	OwnerID  int64
	IsPublic bool
	Grants   []Grant
}

type FileAccessLoader interface {
	LoadFileAccess(ctx context.Context, fileID int64) (*FileAccess, error)
}

// Decide applies the access rules in order, first match wins:
// anonymous, missing file, owner, admin, explicit grant, public read.
// Grant expiry is recorded but not enforced.
func Decide(user *User, fa *FileAccess, permissionType string) bool {
	if user == nil || user.ID == 0 {
		return false
	}
	if fa == nil {
		return false
	}
	if fa.OwnerID == user.ID {
		return true
	}
	if user.IsAdmin() {
		return true
	}
	for _, g := range fa.Grants {
		if g.UserID == user.ID && g.PermissionType == permissionType {
			return true
		}
	}
	return permissionType == AccessRead && fa.IsPublic
}

// CanView is the looser check used by detail views: owner, public, admin or
// any grant regardless of type.
func CanView(user *User, fa *FileAccess) bool {
	if user == nil || fa == nil {
		return false
	}
	if fa.OwnerID == user.ID || fa.IsPublic || user.IsAdmin() {
		return true
	}
	for _, g := range fa.Grants {
		if g.UserID == user.ID {
			return true
		}
	}
	return false
}

type ABACPolicy struct {
	loader FileAccessLoader
	logger *slog.Logger
}

func NewABACPolicy(loader FileAccessLoader, logger *slog.Logger) *ABACPolicy {
	return &ABACPolicy{loader: loader, logger: logger}
}

// CanAccessFile loads a fresh snapshot and decides. A missing file is a
// denial, not an error.
func (p *ABACPolicy) CanAccessFile(ctx context.Context, user *User, fileID int64, permissionType string) (bool, error) {
	if user == nil {
		return false, nil
	}
	fa, err := p.loader.LoadFileAccess(ctx, fileID)
	if err != nil {
		if errors.Is(err, ErrResourceNotFound) {
			return false, nil
		}
		return false, err
	}
	return Decide(user, fa, permissionType), nil
}

// RequireFileAccess guards routes carrying an {id} file parameter.
func (p *ABACPolicy) RequireFileAccess(permissionType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				transport.WriteErrorJSON(w, http.StatusUnauthorized, "authentication required")
				return
			}

			fileID, ok := transport.IDParam(r, "id")
			if !ok {
				transport.WriteErrorJSON(w, http.StatusBadRequest, "invalid file id")
				return
			}

			allowed, err := p.CanAccessFile(r.Context(), user, fileID, permissionType)
			if err != nil {
				p.logger.ErrorContext(r.Context(), "file access check failed", "error", err, "file_id", fileID, "user_id", user.ID)
				transport.WriteErrorJSON(w, http.StatusInternalServerError, "internal server error")
				return
			}
			if !allowed {
				p.logger.WarnContext(r.Context(), "access denied: file permission",
					"user_id", user.ID,
					"file_id", fileID,
					"permission_type", permissionType)
				transport.WriteErrorJSON(w, http.StatusForbidden, "you do not have permission to access this file")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
