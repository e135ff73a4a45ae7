package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sbkim/settlement-flow/internal/application/port"
	"github.com/sbkim/settlement-flow/internal/domain/apperr"
	"github.com/sbkim/settlement-flow/internal/domain/entity"
	"github.com/sbkim/settlement-flow/internal/domain/lifecycle"
)

// NotificationService translates lifecycle transitions into notification
// records and serves the read side consumed by polling clients. Fan-out runs
// inside the transition's transaction: a failed notification write rolls the
// whole transition back.
type NotificationService interface {
	// NotifySubmitted informs every representative and vice-representative of
	// a newly pending request. Recipients are resolved by role at call time.
	NotifySubmitted(ctx context.Context, req *entity.SettlementRequest, authorName string) error

	// NotifyDecision informs the request's author of an approval or rejection.
	NotifyDecision(ctx context.Context, req *entity.SettlementRequest, decision lifecycle.Status, comment string) error

	// NotifyPaymentReady informs every accountant that an approved request
	// awaits payment.
	NotifyPaymentReady(ctx context.Context, req *entity.SettlementRequest, authorName string) error

	// NotifyPaymentCompleted informs the author that the transfer happened.
	NotifyPaymentCompleted(ctx context.Context, req *entity.SettlementRequest) error

	// ListForUser returns the user's notifications, newest first.
	ListForUser(ctx context.Context, userID string, page port.Page) ([]*entity.Notification, int, error)

	// MarkRead flips a notification's read flag. Only the recipient may do so.
	MarkRead(ctx context.Context, actor *entity.User, id string) (*entity.Notification, error)
}

type notificationServiceImpl struct {
	notificationRepo port.NotificationRepository
	userRepo         port.UserRepository
	logger           Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	notificationRepo port.NotificationRepository,
	userRepo port.UserRepository,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		logger:           logger,
	}
}

func newNotification(userID, title, message string, typ entity.NotificationType, data entity.NotificationData) *entity.Notification {
	return &entity.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Data:      data,
		CreatedAt: time.Now(),
	}
}

// fanOutToRoles creates one notification per user currently holding any of
// the given roles. No recipients is not an error.
func (s *notificationServiceImpl) fanOutToRoles(
	ctx context.Context,
	title, message string,
	typ entity.NotificationType,
	data entity.NotificationData,
	roles ...entity.Role,
) error {
	recipients, err := s.userRepo.ListByRole(ctx, roles...)
	if err != nil {
		return fmt.Errorf("resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		return nil
	}

	notifications := make([]*entity.Notification, 0, len(recipients))
	for _, user := range recipients {
		notifications = append(notifications, newNotification(user.ID, title, message, typ, data))
	}

	if err := s.notificationRepo.CreateBatch(ctx, notifications); err != nil {
		return fmt.Errorf("create notifications: %w", err)
	}

	s.logger.Info("Notifications fanned out",
		"type", string(typ),
		"request_id", data.RequestID,
		"recipients", len(notifications),
	)
	return nil
}

func (s *notificationServiceImpl) NotifySubmitted(ctx context.Context, req *entity.SettlementRequest, authorName string) error {
	return s.fanOutToRoles(ctx,
		"New settlement request",
		fmt.Sprintf("%s submitted a settlement request.", authorName),
		entity.NotificationApprovalRequest,
		entity.NotificationData{RequestID: req.ID},
		entity.RoleRepresentative, entity.RoleViceRepresentative,
	)
}

func (s *notificationServiceImpl) NotifyDecision(ctx context.Context, req *entity.SettlementRequest, decision lifecycle.Status, comment string) error {
	var title, message string
	if decision == lifecycle.StatusApproved {
		title = "Settlement request approved"
		message = "Your settlement request has been approved."
	} else {
		title = "Settlement request rejected"
		message = "Your settlement request has been rejected."
		if comment != "" {
			message += " Reason: " + comment
		}
	}

	n := newNotification(req.AuthorID, title, message,
		entity.NotificationApprovalResult,
		entity.NotificationData{RequestID: req.ID, Status: decision.String()},
	)
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("create decision notification: %w", err)
	}
	return nil
}

func (s *notificationServiceImpl) NotifyPaymentReady(ctx context.Context, req *entity.SettlementRequest, authorName string) error {
	return s.fanOutToRoles(ctx,
		"Settlement awaiting payment",
		fmt.Sprintf("%s's settlement request was approved and awaits payment.", authorName),
		entity.NotificationPaymentReady,
		entity.NotificationData{RequestID: req.ID},
		entity.RoleAccountant,
	)
}

func (s *notificationServiceImpl) NotifyPaymentCompleted(ctx context.Context, req *entity.SettlementRequest) error {
	n := newNotification(req.AuthorID,
		"Payment completed",
		"The payment for your settlement request has been completed.",
		entity.NotificationPaymentCompleted,
		entity.NotificationData{RequestID: req.ID},
	)
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		return fmt.Errorf("create payment notification: %w", err)
	}
	return nil
}

func (s *notificationServiceImpl) ListForUser(ctx context.Context, userID string, page port.Page) ([]*entity.Notification, int, error) {
	return s.notificationRepo.ListByUser(ctx, userID, page)
}

func (s *notificationServiceImpl) MarkRead(ctx context.Context, actor *entity.User, id string) (*entity.Notification, error) {
	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, apperr.NotFoundf("notification %s", id)
	}
	if n.UserID != actor.ID {
		return nil, apperr.PermissionDeniedf("notification %s belongs to another user", id)
	}
	if err := s.notificationRepo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}
