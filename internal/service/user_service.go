package service

import (
	"context"

	"leoride/internal/database"
	"leoride/internal/domain"
	"leoride/internal/models"

	"github.com/rs/zerolog"
)

type UserService struct {
	repo      domain.Repository
	roleCache domain.RoleCache
	logger    *zerolog.Logger
}

func NewUserService(repo domain.Repository, roleCache domain.RoleCache, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:      repo,
		roleCache: roleCache,
		logger:    logger,
	}
}

// EnsureUser upserts the authenticated principal into the users table.
// First-sight users are always provisioned as customers; the stored role
// is authoritative and changes only through ChangeRole.
func (s *UserService) EnsureUser(ctx context.Context, principal *models.Principal) (*models.User, error) {
	user := &models.User{
		ID:    principal.UserID,
		Name:  principal.Name,
		Email: principal.Email,
		Role:  models.RoleCustomer,
	}
	if err := s.repo.UpsertUser(ctx, user); err != nil {
		return nil, err
	}

	return s.repo.GetUserByID(ctx, principal.UserID)
}

func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *UserService) ChangeRole(ctx context.Context, id string, role string) error {
	if !models.ValidUserRole(role) {
		return database.ErrInvalidInput
	}

	if err := s.repo.UpdateUserRole(ctx, id, role); err != nil {
		return err
	}

	// Stale cached roles would keep the old permissions alive until TTL.
	if s.roleCache != nil {
		if err := s.roleCache.InvalidateRole(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("user_id", id).Msg("role cache invalidation failed")
		}
	}

	return nil
}

func (s *UserService) UpdatePhone(ctx context.Context, id string, phone string) error {
	if phone == "" {
		return database.ErrInvalidInput
	}
	return s.repo.UpdateUserPhone(ctx, id, phone)
}
