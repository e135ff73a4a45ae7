package entity

import "time"

// SettlementRequest is an employee's reimbursement claim. The status field is
// the single point of mutual exclusion for lifecycle transitions; TotalAmount
// is always computed server-side from the items and never changes after
// creation.
type SettlementRequest struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	AuthorID    string    `json:"author_id"`
	Status      string    `json:"status"`
	TotalAmount int64     `json:"total_amount"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Populated on detail reads.
	Author    *User             `json:"author,omitempty"`
	Items     []*SettlementItem `json:"items,omitempty"`
	Approvals []*Approval       `json:"approvals,omitempty"`
	Payment   *Payment          `json:"payment,omitempty"`
}

// SettlementItem is one expense line of a settlement request. Items are
// created atomically with their parent and immutable afterwards.
type SettlementItem struct {
	ID            string    `json:"id"`
	RequestID     string    `json:"request_id"`
	Description   string    `json:"description"`
	Amount        int64     `json:"amount"`
	Remarks       string    `json:"remarks,omitempty"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
