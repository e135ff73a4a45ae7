package lifecycle

// Status represents a settlement request's position in the approval lifecycle.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusPaid     Status = "PAID"
)

var validStatuses = map[Status]bool{
	StatusPending:  true,
	StatusApproved: true,
	StatusRejected: true,
	StatusPaid:     true,
}

var terminalStatuses = map[Status]bool{
	StatusRejected: true,
	StatusPaid:     true,
}

// IsTerminal returns true if no further transitions leave the status.
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// IsValid returns true if the status is a valid lifecycle status.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}
