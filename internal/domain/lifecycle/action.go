package lifecycle

// Action is an operation that creates a settlement request or moves it
// through the lifecycle.
type Action string

const (
	ActionCreate  Action = "CREATE"
	ActionApprove Action = "APPROVE"
	ActionReject  Action = "REJECT"
	ActionPay     Action = "PAY"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}
