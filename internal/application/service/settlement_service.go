package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sbkim/settlement-flow/internal/application/port"
	"github.com/sbkim/settlement-flow/internal/domain/apperr"
	"github.com/sbkim/settlement-flow/internal/domain/entity"
	"github.com/sbkim/settlement-flow/internal/domain/lifecycle"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateItemInput is one expense line of a creation call.
type CreateItemInput struct {
	Description   string
	Amount        int64
	Remarks       string
	AttachmentURL string
}

// CreateSettlementInput is the payload of a creation call. The total is
// always computed server-side from the items; a client-supplied total is
// never trusted.
type CreateSettlementInput struct {
	Title string
	Notes string
	Items []CreateItemInput
}

// DecideInput is the payload of an approve/reject call.
type DecideInput struct {
	RequestID string
	Decision  string
	Comment   string
}

// PayInput is the payload of a payment execution call.
type PayInput struct {
	RequestID     string
	BankName      string
	AccountNumber string
	PaymentDate   time.Time
	Note          string
}

// SettlementService is the lifecycle engine: the sole authority that mutates
// settlement state. Every transition evaluates the lifecycle guard, runs as a
// single transaction together with its decision/payment record and its
// notification fan-out, and serializes on the request's status via
// compare-and-swap.
type SettlementService interface {
	Create(ctx context.Context, actor *entity.User, in CreateSettlementInput) (*entity.SettlementRequest, error)
	Get(ctx context.Context, actor *entity.User, id string) (*entity.SettlementRequest, error)
	List(ctx context.Context, actor *entity.User, status lifecycle.Status, page port.Page) ([]*entity.SettlementRequest, int, error)
	PaymentQueue(ctx context.Context, actor *entity.User, page port.Page) ([]*entity.SettlementRequest, int, error)
	Decide(ctx context.Context, actor *entity.User, in DecideInput) (*entity.SettlementRequest, error)
	Pay(ctx context.Context, actor *entity.User, in PayInput) (*entity.SettlementRequest, error)
}

type settlementServiceImpl struct {
	settlementRepo port.SettlementRepository
	notifier       NotificationService
	txManager      port.TransactionManager
	logger         Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(
	settlementRepo port.SettlementRepository,
	notifier NotificationService,
	txManager port.TransactionManager,
	logger Logger,
) SettlementService {
	return &settlementServiceImpl{
		settlementRepo: settlementRepo,
		notifier:       notifier,
		txManager:      txManager,
		logger:         logger,
	}
}

// Create validates the claim, computes the total from its items and persists
// the request in PENDING, notifying all approvers in the same transaction.
func (s *settlementServiceImpl) Create(ctx context.Context, actor *entity.User, in CreateSettlementInput) (*entity.SettlementRequest, error) {
	if err := lifecycle.Authorize(actor.Role, lifecycle.ActionCreate); err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.Validationf("title is required")
	}
	if len(in.Items) == 0 {
		return nil, apperr.Validationf("at least one item is required")
	}

	now := time.Now()
	req := &entity.SettlementRequest{
		ID:        uuid.NewString(),
		Title:     in.Title,
		AuthorID:  actor.ID,
		Status:    lifecycle.StatusPending.String(),
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var total int64
	for i, item := range in.Items {
		if strings.TrimSpace(item.Description) == "" {
			return nil, apperr.Validationf("item %d: description is required", i+1)
		}
		if item.Amount <= 0 {
			return nil, apperr.Validationf("item %d: amount must be positive, got %d", i+1, item.Amount)
		}
		total += item.Amount
		req.Items = append(req.Items, &entity.SettlementItem{
			ID:            uuid.NewString(),
			RequestID:     req.ID,
			Description:   item.Description,
			Amount:        item.Amount,
			Remarks:       item.Remarks,
			AttachmentURL: item.AttachmentURL,
			CreatedAt:     now,
		})
	}
	req.TotalAmount = total

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.settlementRepo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create settlement: %w", err)
		}
		return s.notifier.NotifySubmitted(txCtx, req, actor.Name)
	})
	if err != nil {
		s.logger.Error("Failed to create settlement", "error", err, "author_id", actor.ID)
		return nil, err
	}

	s.logger.Info("Settlement request created",
		"request_id", req.ID,
		"author_id", actor.ID,
		"total_amount", req.TotalAmount,
		"items", len(req.Items),
	)
	return s.settlementRepo.GetByID(ctx, req.ID)
}

// Get returns the full request detail under the read-side visibility rule:
// employees see only their own requests, every other role sees all.
func (s *settlementServiceImpl) Get(ctx context.Context, actor *entity.User, id string) (*entity.SettlementRequest, error) {
	req, err := s.settlementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperr.NotFoundf("settlement request %s", id)
	}
	if actor.Role == entity.RoleEmployee && req.AuthorID != actor.ID {
		return nil, apperr.PermissionDeniedf("request %s belongs to another author", id)
	}
	return req, nil
}

// List returns requests under role-scoped visibility. An accountant's
// default scope is the payment queue (APPROVED) until an explicit status
// filter widens it.
func (s *settlementServiceImpl) List(ctx context.Context, actor *entity.User, status lifecycle.Status, page port.Page) ([]*entity.SettlementRequest, int, error) {
	if status != "" && !status.IsValid() {
		return nil, 0, apperr.Validationf("unknown status %q", status)
	}

	filter := port.SettlementFilter{Status: status}
	switch actor.Role {
	case entity.RoleEmployee:
		filter.AuthorID = actor.ID
	case entity.RoleAccountant:
		if status == "" {
			filter.Status = lifecycle.StatusApproved
		}
	}
	return s.settlementRepo.List(ctx, filter, page)
}

// PaymentQueue lists APPROVED requests awaiting payment execution.
func (s *settlementServiceImpl) PaymentQueue(ctx context.Context, actor *entity.User, page port.Page) ([]*entity.SettlementRequest, int, error) {
	if actor.Role != entity.RoleAccountant && actor.Role != entity.RoleAdmin {
		return nil, 0, apperr.PermissionDeniedf("role %s may not access the payment queue", actor.Role)
	}
	return s.settlementRepo.List(ctx, port.SettlementFilter{Status: lifecycle.StatusApproved}, page)
}

// Decide records an approval or rejection. Exactly one decision can move a
// request out of PENDING: the status update is a compare-and-swap in the same
// transaction as the approval record and the fan-out, so a concurrent loser
// observes AlreadyProcessed and nothing else changes.
func (s *settlementServiceImpl) Decide(ctx context.Context, actor *entity.User, in DecideInput) (*entity.SettlementRequest, error) {
	action, err := lifecycle.DecisionAction(in.Decision)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Authorize(actor.Role, action); err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.settlementRepo.GetByID(txCtx, in.RequestID)
		if err != nil {
			return err
		}
		if req == nil {
			return apperr.NotFoundf("settlement request %s", in.RequestID)
		}

		// Replayed decide after an ambiguous failure must not append a second
		// approval row.
		prior, err := s.settlementRepo.GetApprovalByApprover(txCtx, req.ID, actor.ID)
		if err != nil {
			return err
		}
		if prior != nil {
			return fmt.Errorf("%w: decision already recorded", apperr.ErrAlreadyProcessed)
		}

		next, err := lifecycle.Next(lifecycle.Status(req.Status), action)
		if err != nil {
			return err
		}

		swapped, err := s.settlementRepo.UpdateStatusFrom(txCtx, req.ID, lifecycle.StatusPending, next)
		if err != nil {
			return err
		}
		if !swapped {
			return fmt.Errorf("%w: request left PENDING concurrently", apperr.ErrAlreadyProcessed)
		}

		now := time.Now()
		approval := &entity.Approval{
			ID:         uuid.NewString(),
			RequestID:  req.ID,
			ApproverID: actor.ID,
			Status:     next.String(),
			Comment:    in.Comment,
			ApprovedAt: now,
			CreatedAt:  now,
		}
		if err := s.settlementRepo.CreateApproval(txCtx, approval); err != nil {
			return fmt.Errorf("record approval: %w", err)
		}

		if err := s.notifier.NotifyDecision(txCtx, req, next, in.Comment); err != nil {
			return err
		}
		if next == lifecycle.StatusApproved {
			authorName := req.AuthorID
			if req.Author != nil {
				authorName = req.Author.Name
			}
			if err := s.notifier.NotifyPaymentReady(txCtx, req, authorName); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Settlement decision recorded",
		"request_id", in.RequestID,
		"approver_id", actor.ID,
		"decision", in.Decision,
	)
	return s.settlementRepo.GetByID(ctx, in.RequestID)
}

// Pay records the payment for an APPROVED request and moves it to PAID. The
// request-id-unique payment row and the status compare-and-swap together
// guarantee at most one payment.
func (s *settlementServiceImpl) Pay(ctx context.Context, actor *entity.User, in PayInput) (*entity.SettlementRequest, error) {
	if err := lifecycle.Authorize(actor.Role, lifecycle.ActionPay); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.BankName) == "" || strings.TrimSpace(in.AccountNumber) == "" {
		return nil, apperr.Validationf("bank name and account number are required")
	}
	if in.PaymentDate.IsZero() {
		return nil, apperr.Validationf("payment date is required")
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.settlementRepo.GetByID(txCtx, in.RequestID)
		if err != nil {
			return err
		}
		if req == nil {
			return apperr.NotFoundf("settlement request %s", in.RequestID)
		}

		if _, err := lifecycle.Next(lifecycle.Status(req.Status), lifecycle.ActionPay); err != nil {
			return err
		}

		existing, err := s.settlementRepo.GetPaymentByRequestID(txCtx, req.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: payment already recorded", apperr.ErrConflict)
		}

		swapped, err := s.settlementRepo.UpdateStatusFrom(txCtx, req.ID, lifecycle.StatusApproved, lifecycle.StatusPaid)
		if err != nil {
			return err
		}
		if !swapped {
			return fmt.Errorf("%w: request left APPROVED concurrently", apperr.ErrConflict)
		}

		payment := &entity.Payment{
			ID:            uuid.NewString(),
			RequestID:     req.ID,
			ProcessedBy:   actor.ID,
			BankName:      in.BankName,
			AccountNumber: in.AccountNumber,
			PaymentDate:   in.PaymentDate,
			Note:          in.Note,
			CreatedAt:     time.Now(),
		}
		if err := s.settlementRepo.CreatePayment(txCtx, payment); err != nil {
			return fmt.Errorf("record payment: %w", err)
		}

		return s.notifier.NotifyPaymentCompleted(txCtx, req)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Settlement payment executed",
		"request_id", in.RequestID,
		"processed_by", actor.ID,
	)
	return s.settlementRepo.GetByID(ctx, in.RequestID)
}
