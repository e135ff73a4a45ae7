package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sbkim/settlement-flow/internal/application/port"
	"github.com/sbkim/settlement-flow/internal/domain/apperr"
	"github.com/sbkim/settlement-flow/internal/domain/entity"
	"github.com/sbkim/settlement-flow/internal/domain/lifecycle"
)

func TestNotificationService_NotifySubmitted(t *testing.T) {
	var askedRoles []entity.Role
	var batch []*entity.Notification
	userRepo := &mockUserRepo{
		listByRoleFunc: func(ctx context.Context, roles ...entity.Role) ([]*entity.User, error) {
			askedRoles = roles
			return []*entity.User{
				{ID: "rep-1", Role: entity.RoleRepresentative},
				{ID: "vice-1", Role: entity.RoleViceRepresentative},
			}, nil
		},
	}
	notifRepo := &mockNotificationRepo{
		createBatchFunc: func(ctx context.Context, ns []*entity.Notification) error {
			batch = ns
			return nil
		},
	}
	svc := NewNotificationService(notifRepo, userRepo, &mockLogger{})

	req := &entity.SettlementRequest{ID: "req-1", AuthorID: "user-1"}
	if err := svc.NotifySubmitted(context.Background(), req, "Kim"); err != nil {
		t.Fatalf("NotifySubmitted() error = %v", err)
	}

	if len(askedRoles) != 2 {
		t.Fatalf("resolved %d roles, want 2", len(askedRoles))
	}
	if len(batch) != 2 {
		t.Fatalf("created %d notifications, want 2", len(batch))
	}
	for _, n := range batch {
		if n.Type != entity.NotificationApprovalRequest {
			t.Errorf("type = %v, want %v", n.Type, entity.NotificationApprovalRequest)
		}
		if n.Data.RequestID != "req-1" {
			t.Errorf("data.request_id = %v, want req-1", n.Data.RequestID)
		}
	}
}

func TestNotificationService_NotifySubmitted_NoRecipients(t *testing.T) {
	var batched bool
	notifRepo := &mockNotificationRepo{
		createBatchFunc: func(ctx context.Context, ns []*entity.Notification) error {
			batched = true
			return nil
		},
	}
	svc := NewNotificationService(notifRepo, &mockUserRepo{}, &mockLogger{})

	req := &entity.SettlementRequest{ID: "req-1", AuthorID: "user-1"}
	if err := svc.NotifySubmitted(context.Background(), req, "Kim"); err != nil {
		t.Fatalf("NotifySubmitted() error = %v", err)
	}
	if batched {
		t.Error("NotifySubmitted() wrote a batch with no recipients")
	}
}

func TestNotificationService_NotifyDecision(t *testing.T) {
	tests := []struct {
		name     string
		decision lifecycle.Status
		comment  string
	}{
		{"approved", lifecycle.StatusApproved, ""},
		{"rejected with reason", lifecycle.StatusRejected, "missing receipts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *entity.Notification
			notifRepo := &mockNotificationRepo{
				createFunc: func(ctx context.Context, n *entity.Notification) error {
					got = n
					return nil
				},
			}
			svc := NewNotificationService(notifRepo, &mockUserRepo{}, &mockLogger{})

			req := &entity.SettlementRequest{ID: "req-1", AuthorID: "user-1"}
			if err := svc.NotifyDecision(context.Background(), req, tt.decision, tt.comment); err != nil {
				t.Fatalf("NotifyDecision() error = %v", err)
			}
			if got == nil {
				t.Fatal("NotifyDecision() created nothing")
			}
			if got.UserID != "user-1" {
				t.Errorf("recipient = %v, want user-1", got.UserID)
			}
			if got.Type != entity.NotificationApprovalResult {
				t.Errorf("type = %v, want %v", got.Type, entity.NotificationApprovalResult)
			}
			if got.Data.Status != tt.decision.String() {
				t.Errorf("data.status = %v, want %v", got.Data.Status, tt.decision)
			}
		})
	}
}

func TestNotificationService_NotifyPaymentReady(t *testing.T) {
	var askedRoles []entity.Role
	userRepo := &mockUserRepo{
		listByRoleFunc: func(ctx context.Context, roles ...entity.Role) ([]*entity.User, error) {
			askedRoles = roles
			return []*entity.User{{ID: "acct-1", Role: entity.RoleAccountant}}, nil
		},
	}
	var batch []*entity.Notification
	notifRepo := &mockNotificationRepo{
		createBatchFunc: func(ctx context.Context, ns []*entity.Notification) error {
			batch = ns
			return nil
		},
	}
	svc := NewNotificationService(notifRepo, userRepo, &mockLogger{})

	req := &entity.SettlementRequest{ID: "req-1", AuthorID: "user-1"}
	if err := svc.NotifyPaymentReady(context.Background(), req, "Kim"); err != nil {
		t.Fatalf("NotifyPaymentReady() error = %v", err)
	}
	if len(askedRoles) != 1 || askedRoles[0] != entity.RoleAccountant {
		t.Errorf("resolved roles = %v, want [ACCOUNTANT]", askedRoles)
	}
	if len(batch) != 1 || batch[0].Type != entity.NotificationPaymentReady {
		t.Errorf("batch = %+v, want one payment_ready notification", batch)
	}
}

func TestNotificationService_NotifyPaymentCompleted(t *testing.T) {
	var got *entity.Notification
	notifRepo := &mockNotificationRepo{
		createFunc: func(ctx context.Context, n *entity.Notification) error {
			got = n
			return nil
		},
	}
	svc := NewNotificationService(notifRepo, &mockUserRepo{}, &mockLogger{})

	req := &entity.SettlementRequest{ID: "req-1", AuthorID: "user-1"}
	if err := svc.NotifyPaymentCompleted(context.Background(), req); err != nil {
		t.Fatalf("NotifyPaymentCompleted() error = %v", err)
	}
	if got == nil || got.UserID != "user-1" || got.Type != entity.NotificationPaymentCompleted {
		t.Errorf("notification = %+v, want payment_completed for user-1", got)
	}
}

func TestNotificationService_MarkRead(t *testing.T) {
	tests := []struct {
		name    string
		actor   *entity.User
		stored  *entity.Notification
		wantErr error
	}{
		{
			name:   "recipient marks read",
			actor:  employee("user-1"),
			stored: &entity.Notification{ID: "n-1", UserID: "user-1"},
		},
		{
			name:    "other user denied",
			actor:   employee("user-2"),
			stored:  &entity.Notification{ID: "n-1", UserID: "user-1"},
			wantErr: apperr.ErrPermissionDenied,
		},
		{
			name:    "missing notification",
			actor:   employee("user-1"),
			wantErr: apperr.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var marked string
			notifRepo := &mockNotificationRepo{
				getByIDFunc: func(ctx context.Context, id string) (*entity.Notification, error) {
					return tt.stored, nil
				},
				markReadFunc: func(ctx context.Context, id string) error {
					marked = id
					return nil
				},
			}
			svc := NewNotificationService(notifRepo, &mockUserRepo{}, &mockLogger{})

			n, err := svc.MarkRead(context.Background(), tt.actor, "n-1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("MarkRead() error = %v, want %v", err, tt.wantErr)
				}
				if marked != "" {
					t.Error("MarkRead() flipped the flag despite error")
				}
				return
			}
			if err != nil {
				t.Fatalf("MarkRead() error = %v", err)
			}
			if !n.IsRead {
				t.Error("MarkRead() returned notification with is_read false")
			}
			if marked != "n-1" {
				t.Errorf("marked id = %v, want n-1", marked)
			}
		})
	}
}

func TestNotificationService_ListForUser(t *testing.T) {
	var gotUser string
	var gotPage port.Page
	notifRepo := &mockNotificationRepo{
		listByUserFunc: func(ctx context.Context, userID string, page port.Page) ([]*entity.Notification, int, error) {
			gotUser = userID
			gotPage = page
			return []*entity.Notification{{ID: "n-1", UserID: userID}}, 1, nil
		},
	}
	svc := NewNotificationService(notifRepo, &mockUserRepo{}, &mockLogger{})

	ns, total, err := svc.ListForUser(context.Background(), "user-1", port.Page{Page: 2, Limit: 20})
	if err != nil {
		t.Fatalf("ListForUser() error = %v", err)
	}
	if gotUser != "user-1" || gotPage.Page != 2 {
		t.Errorf("ListForUser() forwarded user=%v page=%+v", gotUser, gotPage)
	}
	if total != 1 || len(ns) != 1 {
		t.Errorf("ListForUser() = %d items, total %d", len(ns), total)
	}
}
