package user

import (
	"context"
	"log/slog"
	"strings"

	"github.com/frahmantamala/filehub/internal/auth"
	"github.com/frahmantamala/filehub/internal/transport"
	"github.com/frahmantamala/filehub/pkg/logger"
)

type Service struct {
	repo   RepositoryAPI
	files  FileLister
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, files FileLister) *Service {
	return &Service{
		repo:   repo,
		files:  files,
		logger: logger.LoggerWrapper(),
	}
}

func (s *Service) List(ctx context.Context, search string, p transport.Page) ([]*User, int64, error) {
	rows, total, err := s.repo.List(ctx, strings.TrimSpace(search), p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, err
	}
	out := make([]*User, 0, len(rows))
	for i := range rows {
		out = append(out, FromDataModel(&rows[i]))
	}
	return out, total, nil
}

func (s *Service) Detail(ctx context.Context, userID int64) (*Detail, error) {
	row, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	d := &Detail{User: FromDataModel(row)}
	if s.files != nil {
		files, err := s.files.ListByOwner(ctx, userID)
		if err != nil {
			return nil, err
		}
		d.Files = files
	}
	return d, nil
}

// ReplaceRoles clears the user's roles and attaches the named ones. Unknown
// role names are ignored.
func (s *Service) ReplaceRoles(ctx context.Context, actor *auth.User, userID int64, roles []string) (*User, error) {
	names := make([]string, 0, len(roles))
	seen := map[string]bool{}
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		names = append(names, r)
	}

	applied, err := s.repo.ReplaceRoles(ctx, userID, names)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user roles replaced", "user_id", userID, "roles", applied, "requested", names, "actor_id", actorID(actor))

	row, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func (s *Service) SetActive(ctx context.Context, actor *auth.User, userID int64, active bool) (*User, error) {
	if !active && actor != nil && actor.ID == userID {
		return nil, ErrSelfDeactivate
	}
	if err := s.repo.SetActive(ctx, userID, active); err != nil {
		return nil, err
	}
	s.logger.Info("user status changed", "user_id", userID, "is_active", active, "actor_id", actorID(actor))

	row, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return FromDataModel(row), nil
}

func actorID(u *auth.User) int64 {
	if u == nil {
		return 0
	}
	return u.ID
}
