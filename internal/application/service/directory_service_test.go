package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sbkim/settlement-flow/internal/application/port"
	"github.com/sbkim/settlement-flow/internal/domain/apperr"
	"github.com/sbkim/settlement-flow/internal/domain/entity"
)

type mockVerifier struct {
	verifyFunc func(ctx context.Context, token string) (*port.Identity, error)
}

func (m *mockVerifier) Verify(ctx context.Context, token string) (*port.Identity, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, token)
	}
	return &port.Identity{ID: "user-1", Email: "kim@example.com", Name: "Kim"}, nil
}

func TestDirectoryService_Resolve(t *testing.T) {
	t.Run("provisions first-seen identity as employee", func(t *testing.T) {
		var provisioned *entity.User
		userRepo := &mockUserRepo{
			provisionFunc: func(ctx context.Context, user *entity.User) error {
				provisioned = user
				return nil
			},
			getByIDFunc: func(ctx context.Context, id string) (*entity.User, error) {
				return &entity.User{ID: id, Email: "kim@example.com", Name: "Kim", Role: entity.RoleEmployee}, nil
			},
		}
		svc := NewDirectoryService(&mockVerifier{}, userRepo, &mockLogger{})

		user, err := svc.Resolve(context.Background(), "valid-token")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if provisioned == nil || provisioned.Role != entity.RoleEmployee {
			t.Errorf("provisioned = %+v, want role EMPLOYEE", provisioned)
		}
		if user.ID != "user-1" {
			t.Errorf("user.ID = %v, want user-1", user.ID)
		}
	})

	t.Run("directory role wins over provisioning default", func(t *testing.T) {
		userRepo := &mockUserRepo{
			getByIDFunc: func(ctx context.Context, id string) (*entity.User, error) {
				return &entity.User{ID: id, Role: entity.RoleRepresentative}, nil
			},
		}
		svc := NewDirectoryService(&mockVerifier{}, userRepo, &mockLogger{})

		user, err := svc.Resolve(context.Background(), "valid-token")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if user.Role != entity.RoleRepresentative {
			t.Errorf("user.Role = %v, want REPRESENTATIVE", user.Role)
		}
	})

	t.Run("empty token", func(t *testing.T) {
		svc := NewDirectoryService(&mockVerifier{}, &mockUserRepo{}, &mockLogger{})

		if _, err := svc.Resolve(context.Background(), ""); !errors.Is(err, apperr.ErrUnauthenticated) {
			t.Errorf("Resolve() error = %v, want %v", err, apperr.ErrUnauthenticated)
		}
	})

	t.Run("verification failure", func(t *testing.T) {
		verifier := &mockVerifier{
			verifyFunc: func(ctx context.Context, token string) (*port.Identity, error) {
				return nil, errors.New("signature mismatch")
			},
		}
		svc := NewDirectoryService(verifier, &mockUserRepo{}, &mockLogger{})

		if _, err := svc.Resolve(context.Background(), "forged"); !errors.Is(err, apperr.ErrUnauthenticated) {
			t.Errorf("Resolve() error = %v, want %v", err, apperr.ErrUnauthenticated)
		}
	})
}

func TestDirectoryService_ListUsers(t *testing.T) {
	userRepo := &mockUserRepo{
		listFunc: func(ctx context.Context) ([]*entity.User, error) {
			return []*entity.User{{ID: "user-1"}, {ID: "user-2"}}, nil
		},
	}
	svc := NewDirectoryService(&mockVerifier{}, userRepo, &mockLogger{})

	if _, err := svc.ListUsers(context.Background(), employee("user-1")); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Errorf("ListUsers() error = %v, want %v", err, apperr.ErrPermissionDenied)
	}

	users, err := svc.ListUsers(context.Background(), &entity.User{ID: "admin-1", Role: entity.RoleAdmin})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("ListUsers() = %d users, want 2", len(users))
	}
}

func TestDirectoryService_UpdateRole(t *testing.T) {
	admin := &entity.User{ID: "admin-1", Role: entity.RoleAdmin}

	tests := []struct {
		name    string
		actor   *entity.User
		target  *entity.User
		role    entity.Role
		wantErr error
	}{
		{
			name:   "admin promotes employee",
			actor:  admin,
			target: &entity.User{ID: "user-1", Role: entity.RoleEmployee},
			role:   entity.RoleAccountant,
		},
		{
			name:    "employee denied",
			actor:   employee("user-2"),
			target:  &entity.User{ID: "user-1", Role: entity.RoleEmployee},
			role:    entity.RoleAccountant,
			wantErr: apperr.ErrPermissionDenied,
		},
		{
			name:    "representative denied",
			actor:   &entity.User{ID: "rep-1", Role: entity.RoleRepresentative},
			target:  &entity.User{ID: "user-1", Role: entity.RoleEmployee},
			role:    entity.RoleAccountant,
			wantErr: apperr.ErrPermissionDenied,
		},
		{
			name:    "unknown role",
			actor:   admin,
			target:  &entity.User{ID: "user-1", Role: entity.RoleEmployee},
			role:    entity.Role("SUPERUSER"),
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "missing target",
			actor:   admin,
			role:    entity.RoleAccountant,
			wantErr: apperr.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var updatedID string
			var updatedRole entity.Role
			userRepo := &mockUserRepo{
				getByIDFunc: func(ctx context.Context, id string) (*entity.User, error) {
					return tt.target, nil
				},
				updateRoleFunc: func(ctx context.Context, id string, role entity.Role) error {
					updatedID = id
					updatedRole = role
					return nil
				},
			}
			svc := NewDirectoryService(&mockVerifier{}, userRepo, &mockLogger{})

			user, err := svc.UpdateRole(context.Background(), tt.actor, "user-1", tt.role)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("UpdateRole() error = %v, want %v", err, tt.wantErr)
				}
				if updatedID != "" {
					t.Error("UpdateRole() persisted despite error")
				}
				return
			}
			if err != nil {
				t.Fatalf("UpdateRole() error = %v", err)
			}
			if updatedID != "user-1" || updatedRole != tt.role {
				t.Errorf("persisted %v=%v, want user-1=%v", updatedID, updatedRole, tt.role)
			}
			if user.Role != tt.role {
				t.Errorf("returned role = %v, want %v", user.Role, tt.role)
			}
		})
	}
}
