package lifecycle

import (
	"errors"
	"testing"

	"github.com/sbkim/settlement-flow/internal/domain/apperr"
	"github.com/sbkim/settlement-flow/internal/domain/entity"
)

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusPending, false},
		{StatusApproved, false},
		{StatusRejected, true},
		{StatusPaid, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.expected {
				t.Errorf("Status.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStatus_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		expected bool
	}{
		{"pending", StatusPending, true},
		{"paid", StatusPaid, true},
		{"unknown", Status("SHIPPED"), false},
		{"empty", Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.IsValid(); got != tt.expected {
				t.Errorf("Status.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		role    entity.Role
		action  Action
		wantErr error
	}{
		{"employee creates", entity.RoleEmployee, ActionCreate, nil},
		{"admin creates", entity.RoleAdmin, ActionCreate, nil},
		{"representative creates", entity.RoleRepresentative, ActionCreate, apperr.ErrPermissionDenied},
		{"accountant creates", entity.RoleAccountant, ActionCreate, apperr.ErrPermissionDenied},

		{"representative approves", entity.RoleRepresentative, ActionApprove, nil},
		{"vice representative approves", entity.RoleViceRepresentative, ActionApprove, nil},
		{"admin approves", entity.RoleAdmin, ActionApprove, nil},
		{"employee approves", entity.RoleEmployee, ActionApprove, apperr.ErrPermissionDenied},
		{"accountant approves", entity.RoleAccountant, ActionApprove, apperr.ErrPermissionDenied},

		{"representative rejects", entity.RoleRepresentative, ActionReject, nil},
		{"vice representative rejects", entity.RoleViceRepresentative, ActionReject, nil},
		{"employee rejects", entity.RoleEmployee, ActionReject, apperr.ErrPermissionDenied},

		{"accountant pays", entity.RoleAccountant, ActionPay, nil},
		{"admin pays", entity.RoleAdmin, ActionPay, nil},
		{"representative pays", entity.RoleRepresentative, ActionPay, apperr.ErrPermissionDenied},
		{"employee pays", entity.RoleEmployee, ActionPay, apperr.ErrPermissionDenied},

		{"unknown action", entity.RoleAdmin, Action("ARCHIVE"), apperr.ErrInvalidStateTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.role, tt.action)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Authorize() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNext(t *testing.T) {
	tests := []struct {
		name    string
		current Status
		action  Action
		want    Status
		wantErr error
	}{
		{"approve pending", StatusPending, ActionApprove, StatusApproved, nil},
		{"reject pending", StatusPending, ActionReject, StatusRejected, nil},
		{"pay approved", StatusApproved, ActionPay, StatusPaid, nil},

		{"approve approved", StatusApproved, ActionApprove, "", apperr.ErrAlreadyProcessed},
		{"approve rejected", StatusRejected, ActionApprove, "", apperr.ErrAlreadyProcessed},
		{"reject paid", StatusPaid, ActionReject, "", apperr.ErrAlreadyProcessed},

		{"pay pending", StatusPending, ActionPay, "", apperr.ErrInvalidStateTransition},
		{"pay rejected", StatusRejected, ActionPay, "", apperr.ErrInvalidStateTransition},
		{"pay paid", StatusPaid, ActionPay, "", apperr.ErrConflict},

		{"create is not a transition", StatusPending, ActionCreate, "", apperr.ErrInvalidStateTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.current, tt.action)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Next() error = %v, want nil", err)
				}
				if got != tt.want {
					t.Errorf("Next() = %v, want %v", got, tt.want)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Next() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGuard(t *testing.T) {
	// Role check fires before the status check.
	if _, err := Guard(entity.RoleEmployee, StatusPaid, ActionApprove); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Errorf("Guard() error = %v, want %v", err, apperr.ErrPermissionDenied)
	}

	next, err := Guard(entity.RoleRepresentative, StatusPending, ActionApprove)
	if err != nil {
		t.Fatalf("Guard() error = %v", err)
	}
	if next != StatusApproved {
		t.Errorf("Guard() = %v, want %v", next, StatusApproved)
	}
}

func TestDecisionAction(t *testing.T) {
	tests := []struct {
		decision string
		want     Action
		wantErr  error
	}{
		{"APPROVED", ActionApprove, nil},
		{"REJECTED", ActionReject, nil},
		{"PENDING", "", apperr.ErrValidation},
		{"approved", "", apperr.ErrValidation},
		{"", "", apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.decision, func(t *testing.T) {
			got, err := DecisionAction(tt.decision)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("DecisionAction() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecisionAction() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecisionAction() = %v, want %v", got, tt.want)
			}
		})
	}
}
