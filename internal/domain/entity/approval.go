package entity

import "time"

// Approval is one approver's recorded decision against a settlement request.
// Approvals are append-only; at most one of them actually moves the request
// out of PENDING.
type Approval struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	ApproverID string    `json:"approver_id"`
	Status     string    `json:"status"` // APPROVED or REJECTED
	Comment    string    `json:"comment,omitempty"`
	ApprovedAt time.Time `json:"approved_at"`
	CreatedAt  time.Time `json:"created_at"`

	Approver *User `json:"approver,omitempty"`
}

// Payment records that a request's reimbursement was transferred. A request
// has at most one payment, and its creation is the only path to PAID.
type Payment struct {
	ID            string    `json:"id"`
	RequestID     string    `json:"request_id"`
	ProcessedBy   string    `json:"processed_by"`
	BankName      string    `json:"bank_name"`
	AccountNumber string    `json:"account_number"`
	PaymentDate   time.Time `json:"payment_date"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`

	Processor *User `json:"processor,omitempty"`
}
