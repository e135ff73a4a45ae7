package port

import (
	"context"

	"github.com/sbkim/settlement-flow/internal/domain/entity"
	"github.com/sbkim/settlement-flow/internal/domain/lifecycle"
)

// SettlementFilter narrows settlement listings. Zero values mean "no filter".
type SettlementFilter struct {
	AuthorID string
	Status   lifecycle.Status
}

// Page describes offset pagination. Page is 1-based.
type Page struct {
	Page  int
	Limit int
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// SettlementRepository defines persistence operations for settlement requests
// and their owned entities. All writes participate in the transaction carried
// by the context when one is present.
type SettlementRepository interface {
	// Create persists a request together with its items.
	Create(ctx context.Context, req *entity.SettlementRequest) error

	// GetByID retrieves a request with author, items, approvals (including
	// approvers) and payment (including processor) populated.
	GetByID(ctx context.Context, id string) (*entity.SettlementRequest, error)

	// List retrieves requests matching the filter ordered by creation time
	// descending, with authors and items populated, plus the total count.
	List(ctx context.Context, filter SettlementFilter, page Page) ([]*entity.SettlementRequest, int, error)

	// UpdateStatusFrom moves a request's status from one value to another as
	// a compare-and-swap. It reports false when the request was not in the
	// expected status, without modifying anything.
	UpdateStatusFrom(ctx context.Context, id string, from, to lifecycle.Status) (bool, error)

	// CreateApproval appends an approval record.
	CreateApproval(ctx context.Context, approval *entity.Approval) error

	// GetApprovalByApprover returns the approver's prior decision on the
	// request, or nil when none exists.
	GetApprovalByApprover(ctx context.Context, requestID, approverID string) (*entity.Approval, error)

	// CreatePayment records the payment for a request.
	CreatePayment(ctx context.Context, payment *entity.Payment) error

	// GetPaymentByRequestID returns the request's payment, or nil when none
	// exists.
	GetPaymentByRequestID(ctx context.Context, requestID string) (*entity.Payment, error)
}

// UserRepository is the local directory of identity projections. It is the
// trust source for roles: clients never supply a role on a mutating call.
type UserRepository interface {
	// Provision inserts a first-seen identity with the default EMPLOYEE role,
	// or refreshes email and name for a known one. The stored role is never
	// touched by provisioning.
	Provision(ctx context.Context, user *entity.User) error

	GetByID(ctx context.Context, id string) (*entity.User, error)
	List(ctx context.Context) ([]*entity.User, error)
	ListByRole(ctx context.Context, roles ...entity.Role) ([]*entity.User, error)

	// UpdateRole changes a user's role. Admin-only; enforced by the service.
	UpdateRole(ctx context.Context, id string, role entity.Role) error
}

// NotificationRepository defines persistence operations for notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	CreateBatch(ctx context.Context, ns []*entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	ListByUser(ctx context.Context, userID string, page Page) ([]*entity.Notification, int, error)
	MarkRead(ctx context.Context, id string) error
}

// TransactionManager executes a function within a database transaction
// carried on the context.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
