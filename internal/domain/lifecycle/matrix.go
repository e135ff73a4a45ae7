// Package lifecycle defines the settlement state machine and the role-based
// authorization matrix guarding each transition. Every entry point evaluates
// guards through this package; no handler re-implements role checks.
package lifecycle

import (
	"fmt"

	"github.com/sbkim/settlement-flow/internal/domain/apperr"
	"github.com/sbkim/settlement-flow/internal/domain/entity"
)

// transition describes one edge of the state machine: the status it leaves,
// the status it reaches, and the roles permitted to fire it.
type transition struct {
	from  Status
	to    Status
	roles map[entity.Role]bool
}

func roleSet(roles ...entity.Role) map[entity.Role]bool {
	set := make(map[entity.Role]bool, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return set
}

// matrix is the single source of truth for lifecycle guards. ActionCreate has
// no source status: it brings a request into existence in PENDING.
var matrix = map[Action]transition{
	ActionCreate: {
		to:    StatusPending,
		roles: roleSet(entity.RoleEmployee, entity.RoleAdmin),
	},
	ActionApprove: {
		from:  StatusPending,
		to:    StatusApproved,
		roles: roleSet(entity.RoleRepresentative, entity.RoleViceRepresentative, entity.RoleAdmin),
	},
	ActionReject: {
		from:  StatusPending,
		to:    StatusRejected,
		roles: roleSet(entity.RoleRepresentative, entity.RoleViceRepresentative, entity.RoleAdmin),
	},
	ActionPay: {
		from:  StatusApproved,
		to:    StatusPaid,
		roles: roleSet(entity.RoleAccountant, entity.RoleAdmin),
	},
}

// Authorize checks whether the role may fire the action at all, independent
// of the request's current status.
func Authorize(role entity.Role, action Action) error {
	t, ok := matrix[action]
	if !ok {
		return fmt.Errorf("%w: unknown action %s", apperr.ErrInvalidStateTransition, action)
	}
	if !t.roles[role] {
		return apperr.PermissionDeniedf("role %s may not %s", role, action)
	}
	return nil
}

// Next returns the status the action transitions to from current. It fails
// with ErrAlreadyProcessed when the request has already left the action's
// source status for a decision, and ErrInvalidStateTransition for any edge
// the machine does not define.
func Next(current Status, action Action) (Status, error) {
	t, ok := matrix[action]
	if !ok || action == ActionCreate {
		return "", fmt.Errorf("%w: unknown action %s", apperr.ErrInvalidStateTransition, action)
	}
	if current == t.from {
		return t.to, nil
	}
	// A decision against a request that already received one is the race
	// loser's view, not a malformed call.
	if t.from == StatusPending && current != StatusPending {
		return "", fmt.Errorf("%w: request is %s", apperr.ErrAlreadyProcessed, current)
	}
	// Paying an already-paid request is a duplicate payment attempt.
	if action == ActionPay && current == StatusPaid {
		return "", fmt.Errorf("%w: request is already paid", apperr.ErrConflict)
	}
	return "", fmt.Errorf("%w: cannot %s from %s", apperr.ErrInvalidStateTransition, action, current)
}

// Guard combines the role check and the status check for a transition.
func Guard(role entity.Role, current Status, action Action) (Status, error) {
	if err := Authorize(role, action); err != nil {
		return "", err
	}
	return Next(current, action)
}

// DecisionAction maps an approval decision string to its lifecycle action.
func DecisionAction(decision string) (Action, error) {
	switch Status(decision) {
	case StatusApproved:
		return ActionApprove, nil
	case StatusRejected:
		return ActionReject, nil
	default:
		return "", apperr.Validationf("decision must be APPROVED or REJECTED, got %q", decision)
	}
}
