package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sbkim/settlement-flow/internal/application/port"
	"github.com/sbkim/settlement-flow/internal/domain/entity"
	"github.com/sbkim/settlement-flow/internal/infrastructure/persistence/sqlite"
)

// UserRepository implements port.UserRepository over sqlite.
type UserRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlite.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Provision inserts a first-seen identity or refreshes email and name for a
// known one. The role column is deliberately left alone on conflict: it is
// mutable only through UpdateRole.
func (r *UserRepository) Provision(ctx context.Context, user *entity.User) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, name = excluded.name, updated_at = excluded.updated_at`,
		user.ID, user.Email, user.Name, user.Role.String(), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to provision user",
			zap.String("user_id", user.ID),
			zap.Error(err))
		return fmt.Errorf("provision user: %w", err)
	}
	return nil
}

// GetByID retrieves a user, or nil when the id does not resolve.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `
		SELECT id, email, name, role, created_at, updated_at FROM users WHERE id = ?`, id)

	var u entity.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.String("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// List returns all users ordered by name.
func (r *UserRepository) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, email, name, role, created_at, updated_at FROM users ORDER BY name, id`)
	if err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// ListByRole returns users currently holding any of the given roles. Lookup
// happens at call time, so a user promoted after a request was submitted is
// still included.
func (r *UserRepository) ListByRole(ctx context.Context, roles ...entity.Role) ([]*entity.User, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(roles))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, 0, len(roles))
	for _, role := range roles {
		args = append(args, role.String())
	}

	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, email, name, role, created_at, updated_at
		FROM users WHERE role IN (`+placeholders+`) ORDER BY name, id`, args...)
	if err != nil {
		r.logger.Error("Failed to list users by role", zap.Error(err))
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// UpdateRole changes a user's role.
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role entity.Role) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		role.String(), time.Now(), id,
	)
	if err != nil {
		r.logger.Error("Failed to update user role",
			zap.String("user_id", id),
			zap.String("role", role.String()),
			zap.Error(err))
		return fmt.Errorf("update user role: %w", err)
	}
	return nil
}

func scanUsers(rows *sql.Rows) ([]*entity.User, error) {
	var users []*entity.User
	for rows.Next() {
		var u entity.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

var _ port.UserRepository = (*UserRepository)(nil)
