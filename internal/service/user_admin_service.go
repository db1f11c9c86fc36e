package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// userSearchLimit caps admin user listings.
const userSearchLimit = 200

// UserAdminService handles the admin-facing user management surface.
type UserAdminService struct {
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewUserAdminService creates a new UserAdminService.
func NewUserAdminService(users repository.UserRepository, logger zerolog.Logger) *UserAdminService {
	return &UserAdminService{
		users:  users,
		logger: logger.With().Str("service", "user_admin").Logger(),
	}
}

// Search returns users matching q against full name, email, or student
// ID. An empty q lists users.
func (s *UserAdminService) Search(ctx context.Context, q string) ([]*domain.User, error) {
	users, err := s.users.Search(ctx, q, userSearchLimit)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to search users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

// UpdateRole changes a user's role and returns the updated user.
func (s *UserAdminService) UpdateRole(ctx context.Context, id string, role domain.Role) (*domain.User, error) {
	if !role.IsValid() {
		return nil, domain.ErrInvalidRole
	}

	if err := s.users.UpdateRole(ctx, id, role); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to update role")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to reload user after role update")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("user_id", id).
		Str("role", string(role)).
		Msg("user role updated")

	return user, nil
}
