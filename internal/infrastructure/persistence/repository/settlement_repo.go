package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sbkim/settlement-flow/internal/application/port"
	"github.com/sbkim/settlement-flow/internal/domain/entity"
	"github.com/sbkim/settlement-flow/internal/domain/lifecycle"
	"github.com/sbkim/settlement-flow/internal/infrastructure/persistence/sqlite"
)

// SettlementRepository implements port.SettlementRepository over sqlite.
type SettlementRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *sqlite.DB, logger *zap.Logger) port.SettlementRepository {
	return &SettlementRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a request together with its items in one atomic unit.
func (r *SettlementRepository) Create(ctx context.Context, req *entity.SettlementRequest) error {
	return r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := r.db.Executor(txCtx)

		_, err := exec.ExecContext(txCtx, `
			INSERT INTO settlement_requests (id, title, author_id, status, total_amount, notes, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			req.ID, req.Title, req.AuthorID, req.Status, req.TotalAmount, req.Notes, req.CreatedAt, req.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to insert settlement request",
				zap.String("request_id", req.ID),
				zap.Error(err))
			return fmt.Errorf("insert settlement request: %w", err)
		}

		for _, item := range req.Items {
			_, err := exec.ExecContext(txCtx, `
				INSERT INTO settlement_items (id, request_id, description, amount, remarks, attachment_url, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				item.ID, item.RequestID, item.Description, item.Amount, item.Remarks, item.AttachmentURL, item.CreatedAt,
			)
			if err != nil {
				r.logger.Error("Failed to insert settlement item",
					zap.String("request_id", req.ID),
					zap.String("item_id", item.ID),
					zap.Error(err))
				return fmt.Errorf("insert settlement item: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves a request with all relations populated. Returns nil when
// the id does not resolve.
func (r *SettlementRepository) GetByID(ctx context.Context, id string) (*entity.SettlementRequest, error) {
	exec := r.db.Executor(ctx)

	req, err := r.scanRequest(exec.QueryRowContext(ctx, `
		SELECT id, title, author_id, status, total_amount, notes, created_at, updated_at
		FROM settlement_requests WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, nil
	}

	if req.Author, err = r.getUser(ctx, req.AuthorID); err != nil {
		return nil, err
	}
	if req.Items, err = r.getItems(ctx, req.ID); err != nil {
		return nil, err
	}
	if req.Approvals, err = r.getApprovals(ctx, req.ID); err != nil {
		return nil, err
	}
	if req.Payment, err = r.GetPaymentByRequestID(ctx, req.ID); err != nil {
		return nil, err
	}
	if req.Payment != nil {
		if req.Payment.Processor, err = r.getUser(ctx, req.Payment.ProcessedBy); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// List retrieves matching requests ordered by creation time descending, with
// the id as tie-break so pagination stays stable, plus the total count.
func (r *SettlementRepository) List(ctx context.Context, filter port.SettlementFilter, page port.Page) ([]*entity.SettlementRequest, int, error) {
	exec := r.db.Executor(ctx)

	where := " WHERE 1=1"
	args := []interface{}{}
	if filter.AuthorID != "" {
		where += " AND author_id = ?"
		args = append(args, filter.AuthorID)
	}
	if filter.Status != "" {
		where += " AND status = ?"
		args = append(args, filter.Status.String())
	}

	var total int
	if err := exec.QueryRowContext(ctx, "SELECT COUNT(*) FROM settlement_requests"+where, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count settlement requests", zap.Error(err))
		return nil, 0, fmt.Errorf("count settlement requests: %w", err)
	}

	query := `
		SELECT id, title, author_id, status, total_amount, notes, created_at, updated_at
		FROM settlement_requests` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	rows, err := exec.QueryContext(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		r.logger.Error("Failed to list settlement requests", zap.Error(err))
		return nil, 0, fmt.Errorf("list settlement requests: %w", err)
	}
	defer rows.Close()

	var requests []*entity.SettlementRequest
	for rows.Next() {
		req, err := r.scanRequestRow(rows)
		if err != nil {
			return nil, 0, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate settlement requests: %w", err)
	}

	for _, req := range requests {
		if req.Author, err = r.getUser(ctx, req.AuthorID); err != nil {
			return nil, 0, err
		}
		if req.Items, err = r.getItems(ctx, req.ID); err != nil {
			return nil, 0, err
		}
	}
	return requests, total, nil
}

// UpdateStatusFrom is the compare-and-swap at the heart of every transition:
// the row moves only if it still holds the expected status.
func (r *SettlementRepository) UpdateStatusFrom(ctx context.Context, id string, from, to lifecycle.Status) (bool, error) {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `
		UPDATE settlement_requests SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		to.String(), time.Now(), id, from.String(),
	)
	if err != nil {
		r.logger.Error("Failed to update settlement status",
			zap.String("request_id", id),
			zap.String("to", to.String()),
			zap.Error(err))
		return false, fmt.Errorf("update settlement status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected == 1, nil
}

// CreateApproval appends an approval record.
func (r *SettlementRepository) CreateApproval(ctx context.Context, approval *entity.Approval) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO approvals (id, request_id, approver_id, status, comment, approved_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		approval.ID, approval.RequestID, approval.ApproverID, approval.Status,
		approval.Comment, approval.ApprovedAt, approval.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert approval",
			zap.String("request_id", approval.RequestID),
			zap.String("approver_id", approval.ApproverID),
			zap.Error(err))
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

// GetApprovalByApprover returns the approver's decision on the request, or
// nil when none exists.
func (r *SettlementRepository) GetApprovalByApprover(ctx context.Context, requestID, approverID string) (*entity.Approval, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `
		SELECT id, request_id, approver_id, status, comment, approved_at, created_at
		FROM approvals WHERE request_id = ? AND approver_id = ?`,
		requestID, approverID,
	)

	approval, err := scanApproval(row)
	if err != nil {
		r.logger.Error("Failed to get approval",
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, err
	}
	return approval, nil
}

// CreatePayment records the payment for a request. The request_id column is
// unique, so a duplicate insert fails at the storage layer as well.
func (r *SettlementRepository) CreatePayment(ctx context.Context, payment *entity.Payment) error {
	_, err := r.db.Executor(ctx).ExecContext(ctx, `
		INSERT INTO payments (id, request_id, processed_by, bank_name, account_number, payment_date, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID, payment.RequestID, payment.ProcessedBy, payment.BankName,
		payment.AccountNumber, payment.PaymentDate, payment.Note, payment.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert payment",
			zap.String("request_id", payment.RequestID),
			zap.Error(err))
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetPaymentByRequestID returns the request's payment, or nil when none exists.
func (r *SettlementRepository) GetPaymentByRequestID(ctx context.Context, requestID string) (*entity.Payment, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `
		SELECT id, request_id, processed_by, bank_name, account_number, payment_date, note, created_at
		FROM payments WHERE request_id = ?`, requestID,
	)

	var p entity.Payment
	err := row.Scan(&p.ID, &p.RequestID, &p.ProcessedBy, &p.BankName, &p.AccountNumber, &p.PaymentDate, &p.Note, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get payment",
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *SettlementRepository) scanRequest(row *sql.Row) (*entity.SettlementRequest, error) {
	var req entity.SettlementRequest
	err := row.Scan(&req.ID, &req.Title, &req.AuthorID, &req.Status, &req.TotalAmount, &req.Notes, &req.CreatedAt, &req.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan settlement request: %w", err)
	}
	return &req, nil
}

func (r *SettlementRepository) scanRequestRow(rows *sql.Rows) (*entity.SettlementRequest, error) {
	var req entity.SettlementRequest
	err := rows.Scan(&req.ID, &req.Title, &req.AuthorID, &req.Status, &req.TotalAmount, &req.Notes, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan settlement request: %w", err)
	}
	return &req, nil
}

func (r *SettlementRepository) getUser(ctx context.Context, id string) (*entity.User, error) {
	row := r.db.Executor(ctx).QueryRowContext(ctx, `
		SELECT id, email, name, role, created_at, updated_at FROM users WHERE id = ?`, id)

	var u entity.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *SettlementRepository) getItems(ctx context.Context, requestID string) ([]*entity.SettlementItem, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, request_id, description, amount, remarks, attachment_url, created_at
		FROM settlement_items WHERE request_id = ? ORDER BY created_at, id`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*entity.SettlementItem
	for rows.Next() {
		var item entity.SettlementItem
		if err := rows.Scan(&item.ID, &item.RequestID, &item.Description, &item.Amount, &item.Remarks, &item.AttachmentURL, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (r *SettlementRepository) getApprovals(ctx context.Context, requestID string) ([]*entity.Approval, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, `
		SELECT id, request_id, approver_id, status, comment, approved_at, created_at
		FROM approvals WHERE request_id = ? ORDER BY created_at, id`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*entity.Approval
	for rows.Next() {
		approval, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		approvals = append(approvals, approval)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, approval := range approvals {
		if approval.Approver, err = r.getUser(ctx, approval.ApproverID); err != nil {
			return nil, err
		}
	}
	return approvals, nil
}

func scanApproval(row rowScanner) (*entity.Approval, error) {
	var a entity.Approval
	err := row.Scan(&a.ID, &a.RequestID, &a.ApproverID, &a.Status, &a.Comment, &a.ApprovedAt, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan approval: %w", err)
	}
	return &a, nil
}

var _ port.SettlementRepository = (*SettlementRepository)(nil)
