// Package admin implements user management for administrators.
package admin

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gigstage/backend/internal/apperr"
	"github.com/gigstage/backend/internal/auth"
	"github.com/gigstage/backend/internal/media"
	"github.com/gigstage/backend/internal/models"
)

// Accounts is the account logic shared with self-service endpoints.
type Accounts interface {
	Create(ctx context.Context, in auth.CreateInput) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, in auth.UpdateInput, newPicture string) (*models.User, error)
	Public(u *models.User) models.UserPublic
}

// UserStore lists and removes user records.
type UserStore interface {
	List(ctx context.Context, offset, limit int) ([]models.User, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProfileRemover deletes a user's role profile and its files, if any.
type ProfileRemover interface {
	DeleteForUser(ctx context.Context, userID uuid.UUID) error
}

// UserList is a page of users.
type UserList struct {
	Users      []models.UserPublic `json:"users"`
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"totalPages"`
}

// Service implements admin user management.
type Service struct {
	accounts Accounts
	users    UserStore
	profiles []ProfileRemover
	files    *media.Cleaner
	logger   *zap.Logger
}

// NewService creates the admin service. profiles are cascaded on user deletion.
func NewService(accounts Accounts, users UserStore, files *media.Cleaner, logger *zap.Logger, profiles ...ProfileRemover) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{accounts: accounts, users: users, profiles: profiles, files: files, logger: logger}
}

// Create adds an account with any role.
func (s *Service) Create(ctx context.Context, in auth.CreateInput) (models.UserPublic, error) {
	u, err := s.accounts.Create(ctx, in)
	if err != nil {
		return models.UserPublic{}, err
	}
	return s.accounts.Public(u), nil
}

// List returns one page of users, newest first.
func (s *Service) List(ctx context.Context, page, limit int) (UserList, error) {
	page, limit = models.NormalizePaging(page, limit)
	list, total, err := s.users.List(ctx, models.Offset(page, limit), limit)
	if err != nil {
		return UserList{}, apperr.Internal("list users", err)
	}
	out := make([]models.UserPublic, len(list))
	for i := range list {
		out[i] = s.accounts.Public(&list[i])
	}
	return UserList{Users: out, Total: total, Page: page, TotalPages: models.TotalPages(total, limit)}, nil
}

// Get returns one user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.UserPublic, error) {
	u, err := s.accounts.Get(ctx, id)
	if err != nil {
		return models.UserPublic{}, err
	}
	return s.accounts.Public(u), nil
}

// Update changes any field of a user, role included.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in auth.UpdateInput, newPicture string) (models.UserPublic, error) {
	u, err := s.accounts.Update(ctx, id, in, newPicture)
	if err != nil {
		return models.UserPublic{}, err
	}
	return s.accounts.Public(u), nil
}

// Delete removes a user together with their role profiles and files.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	u, err := s.accounts.Get(ctx, id)
	if err != nil {
		return err
	}
	for _, p := range s.profiles {
		if err := p.DeleteForUser(ctx, id); err != nil {
			return err
		}
	}
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Internal("delete user", err)
	}
	if u.ProfilePicture != "" {
		s.files.Purge(ctx, u.ProfilePicture)
	}
	s.logger.Info("user deleted", zap.String("user_id", id.String()), zap.String("role", string(u.Role)))
	return nil
}
