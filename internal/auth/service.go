package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/filehub/internal"
	"github.com/frahmantamala/filehub/internal/core/common/validation"
	userdm "github.com/frahmantamala/filehub/internal/core/datamodel/user"
	"github.com/frahmantamala/filehub/internal/core/events"
	"github.com/frahmantamala/filehub/pkg/logger"
)

type ServiceConfig struct {
	BCryptCost       int
	SessionDuration  time.Duration
	RememberDuration time.Duration
}

type Service struct {
	repo      RepositoryAPI
	tokens    TokenGeneratorAPI
	publisher events.Publisher
	cfg       ServiceConfig
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo RepositoryAPI, tokens TokenGeneratorAPI, publisher events.Publisher, cfg ServiceConfig) *Service {
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = 24 * time.Hour
	}
	if cfg.RememberDuration <= 0 {
		cfg.RememberDuration = 7 * 24 * time.Hour
	}
	return &Service{
		repo:      repo,
		tokens:    tokens,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.LoggerWrapper(),
		now:       time.Now,
	}
}

func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	dto.Username = strings.TrimSpace(dto.Username)
	dto.Email = strings.TrimSpace(dto.Email)

	if appErr := validation.ValidateRegistration(dto.Username, dto.Email, dto.Password); appErr != nil {
		return nil, appErr
	}

	usernameTaken, emailTaken, err := s.repo.FindConflicts(ctx, dto.Username, dto.Email)
	if err != nil {
		return nil, err
	}
	if usernameTaken {
		return nil, ErrUsernameTaken
	}
	if emailTaken {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(dto.Password, s.cfg.BCryptCost)
	if err != nil {
		return nil, err
	}

	row := &userdm.User{
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, row, DefaultRole); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	s.logger.Info("user registered", "user_id", row.ID, "username", row.Username)
	s.publish(ctx, events.NewAuthEvent(events.EventTypeUserRegistered, row.ID, row.Username, ""))

	return FromDataModel(row), nil
}

// Authenticate checks the credentials of an active user, stamps last_login
// and issues a session token.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (*Session, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	row, err := s.repo.GetByUsername(ctx, dto.Username)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	if row == nil || VerifyPassword(row.PasswordHash, dto.Password) != nil {
		var userID int64
		if row != nil {
			userID = row.ID
		}
		s.publish(ctx, events.NewAuthEvent(events.EventTypeUserLoginFailed, userID, dto.Username, "username: "+dto.Username))
		return nil, ErrInvalidCredentials
	}
	if !row.IsActive {
		s.publish(ctx, events.NewAuthEvent(events.EventTypeUserLoginFailed, row.ID, dto.Username, "inactive account"))
		return nil, ErrUserInactive
	}

	now := s.now()
	if err := s.repo.UpdateLastLogin(ctx, row.ID, now); err != nil {
		return nil, err
	}
	row.LastLogin = &now

	ttl := s.cfg.SessionDuration
	if dto.Remember {
		ttl = s.cfg.RememberDuration
	}
	token, expiresAt, err := s.tokens.GenerateToken(row.ID, row.Username, ttl)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.NewAuthEvent(events.EventTypeUserLogin, row.ID, row.Username, ""))

	return &Session{Token: token, ExpiresAt: expiresAt, User: FromDataModel(row)}, nil
}

func (s *Service) Logout(ctx context.Context, user *User) {
	if user == nil {
		return
	}
	s.publish(ctx, events.NewAuthEvent(events.EventTypeUserLogout, user.ID, user.Username, ""))
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateToken(tokenString)
}

// GetUser loads an active user with roles and permissions.
func (s *Service) GetUser(ctx context.Context, userID int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !row.IsActive {
		return nil, ErrUserInactive
	}
	return FromDataModel(row), nil
}

func (s *Service) publish(ctx context.Context, e *events.AuthEvent) {
	if s.publisher == nil {
		return
	}
	client := internal.ClientFromContext(ctx)
	e.WithClient(client.IP, client.UserAgent)
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish auth event", "event_type", e.EventType(), "error", err)
	}
}
