package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sbkim/settlement-flow/internal/application/port"
	"github.com/sbkim/settlement-flow/internal/domain/apperr"
	"github.com/sbkim/settlement-flow/internal/domain/entity"
)

// DirectoryService resolves bearer credentials to users and owns the
// admin-only role mutation path. Roles live exclusively in the directory;
// nothing the caller presents can set one.
type DirectoryService interface {
	// Resolve verifies the credential, provisions a first-seen identity with
	// the default EMPLOYEE role, and returns the directory's view of the user.
	Resolve(ctx context.Context, token string) (*entity.User, error)

	// ListUsers returns every directory entry. Admin only.
	ListUsers(ctx context.Context, actor *entity.User) ([]*entity.User, error)

	// UpdateRole changes a user's role. Admin only.
	UpdateRole(ctx context.Context, actor *entity.User, targetID string, role entity.Role) (*entity.User, error)
}

type directoryServiceImpl struct {
	verifier port.TokenVerifier
	userRepo port.UserRepository
	logger   Logger
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(verifier port.TokenVerifier, userRepo port.UserRepository, logger Logger) DirectoryService {
	return &directoryServiceImpl{
		verifier: verifier,
		userRepo: userRepo,
		logger:   logger,
	}
}

func (s *directoryServiceImpl) Resolve(ctx context.Context, token string) (*entity.User, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing bearer token", apperr.ErrUnauthenticated)
	}

	identity, err := s.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}

	now := time.Now()
	if err := s.userRepo.Provision(ctx, &entity.User{
		ID:        identity.ID,
		Email:     identity.Email,
		Name:      identity.Name,
		Role:      entity.RoleEmployee,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("provision user: %w", err)
	}

	user, err := s.userRepo.GetByID(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFoundf("user %s", identity.ID)
	}
	return user, nil
}

func (s *directoryServiceImpl) ListUsers(ctx context.Context, actor *entity.User) ([]*entity.User, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, apperr.PermissionDeniedf("role %s may not list users", actor.Role)
	}
	return s.userRepo.List(ctx)
}

func (s *directoryServiceImpl) UpdateRole(ctx context.Context, actor *entity.User, targetID string, role entity.Role) (*entity.User, error) {
	if actor.Role != entity.RoleAdmin {
		return nil, apperr.PermissionDeniedf("role %s may not change roles", actor.Role)
	}
	if !role.IsValid() {
		return nil, apperr.Validationf("unknown role %q", role)
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, apperr.NotFoundf("user %s", targetID)
	}

	if err := s.userRepo.UpdateRole(ctx, targetID, role); err != nil {
		return nil, err
	}
	s.logger.Info("User role updated",
		"user_id", targetID,
		"role", role.String(),
		"changed_by", actor.ID,
	)

	target.Role = role
	return target, nil
}
