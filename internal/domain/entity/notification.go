package entity

import "time"

// NotificationType is the closed set of notification causes. Fan-out rules
// switch over these cases so a missing rule is a compile-time hole, not a
// silent string mismatch.
type NotificationType string

const (
	NotificationApprovalRequest  NotificationType = "approval_request"
	NotificationApprovalResult   NotificationType = "approval_result"
	NotificationPaymentReady     NotificationType = "payment_ready"
	NotificationPaymentCompleted NotificationType = "payment_completed"
)

var validNotificationTypes = map[NotificationType]bool{
	NotificationApprovalRequest:  true,
	NotificationApprovalResult:   true,
	NotificationPaymentReady:     true,
	NotificationPaymentCompleted: true,
}

// IsValid returns true if the type is a known notification type.
func (t NotificationType) IsValid() bool {
	return validNotificationTypes[t]
}

// NotificationData is the structured reference back to the triggering request.
type NotificationData struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status,omitempty"`
}

// Notification is a per-user notification record consumed by polling clients.
// Only IsRead is ever mutated after creation.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	IsRead    bool             `json:"is_read"`
	Data      NotificationData `json:"data"`
	CreatedAt time.Time        `json:"created_at"`
}
