package domain

import "fmt"

// Kind discriminates the workflowable unit
type Kind string

const (
	KindBorrowSingle Kind = "BORROW_SINGLE"
	KindBorrowBatch  Kind = "BORROW_BATCH"
	KindMaintenance  Kind = "MAINTENANCE"
)

// Status represents the lifecycle state of a custody request.
// One enum serves every kind; maintenance only relabels two states
// at the presentation edge (see Label).
type Status string

const (
	StatusDraft               Status = "DRAFT"
	StatusPendingVerification Status = "PENDING_VERIFICATION"
	StatusPendingApproval     Status = "PENDING_APPROVAL"
	StatusApproved            Status = "APPROVED"
	StatusActive              Status = "ACTIVE"
	StatusPartiallyReturned   Status = "PARTIALLY_RETURNED"
	StatusClosed              Status = "CLOSED"
	StatusCanceled            Status = "CANCELED"
)

// IsTerminal reports whether the status can never be left again.
func (s Status) IsTerminal() bool {
	return s == StatusClosed || s == StatusCanceled
}

// IsActive reports whether the request is out in the field.
// PARTIALLY_RETURNED is an Active state with a partial ledger.
func (s Status) IsActive() bool {
	return s == StatusActive || s == StatusPartiallyReturned
}

// rank orders statuses by workflow progress, used to find the
// least-advanced member of a batch.
func (s Status) rank() int {
	switch s {
	case StatusDraft:
		return 0
	case StatusPendingVerification:
		return 1
	case StatusPendingApproval:
		return 2
	case StatusApproved:
		return 3
	case StatusActive, StatusPartiallyReturned:
		return 4
	case StatusClosed:
		return 5
	}
	return -1
}

// Label returns the kind-specific display name. Maintenance records call
// the active state InProgress and the closed state Completed.
func (s Status) Label(kind Kind) string {
	if kind == KindMaintenance {
		switch s {
		case StatusActive, StatusPartiallyReturned:
			return "IN_PROGRESS"
		case StatusClosed:
			return "COMPLETED"
		}
	}
	if kind != KindMaintenance && s == StatusClosed {
		return "RETURNED"
	}
	return string(s)
}

// Action is a workflow command applied to a request
type Action string

const (
	ActionSubmit   Action = "submit"
	ActionVerify   Action = "verify"
	ActionApprove  Action = "approve"
	ActionActivate Action = "activate"
	ActionReturn   Action = "return"
	ActionExtend   Action = "extend"
	ActionCancel   Action = "cancel"
)

// transition describes where an action may start from and which roles
// may perform it. The target state is computed by Next / NextOnSubmit.
type transition struct {
	from  []Status
	roles []Role
}

var transitions = map[Action]transition{
	ActionSubmit:   {from: []Status{StatusDraft}, roles: []Role{RoleMaker}},
	ActionVerify:   {from: []Status{StatusPendingVerification}, roles: []Role{RoleVerifier}},
	ActionApprove:  {from: []Status{StatusPendingApproval}, roles: []Role{RoleAuthorizer}},
	ActionActivate: {from: []Status{StatusApproved}, roles: []Role{RoleWarehouseman}},
	ActionReturn:   {from: []Status{StatusActive, StatusPartiallyReturned}, roles: []Role{RoleWarehouseman, RoleClerk}},
	ActionExtend:   {from: []Status{StatusActive, StatusPartiallyReturned}, roles: []Role{RoleMaker, RoleClerk}},
	ActionCancel: {
		from:  []Status{StatusDraft, StatusPendingVerification, StatusPendingApproval, StatusApproved},
		roles: []Role{RoleMaker, RoleAuthorizer},
	},
}

// Authorize checks the status gate and the role gate for an action.
// A failed guard is reported as a PreconditionError naming the exact
// unmet condition; the request is never mutated.
func Authorize(action Action, from Status, actor Actor) error {
	t, ok := transitions[action]
	if !ok {
		return &PreconditionError{Action: action, Guard: "unknown action"}
	}

	allowed := false
	for _, s := range t.from {
		if s == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return &PreconditionError{
			Action: action,
			Guard:  fmt.Sprintf("request is %s, %s is not allowed from this status", from, action),
		}
	}

	if !actor.HasRole(t.roles...) {
		return &PreconditionError{
			Action: action,
			Guard:  fmt.Sprintf("actor %q lacks required role %s", actor.Name, rolesList(t.roles)),
		}
	}

	return nil
}

// NextOnSubmit returns the post-submit status. Basic requests auto-traverse
// verification and approval in the same atomic step (the streamlined path);
// Critical requests enter the full MVA chain.
func NextOnSubmit(c Criticality) Status {
	if c == CriticalityBasic {
		return StatusApproved
	}
	return StatusPendingVerification
}

// Next returns the target status of a non-submit, non-return action.
func Next(action Action) Status {
	switch action {
	case ActionVerify:
		return StatusPendingApproval
	case ActionApprove:
		return StatusApproved
	case ActionActivate:
		return StatusActive
	case ActionCancel:
		return StatusCanceled
	}
	return ""
}

// CheckChecklist verifies that every required flag is confirmed. The first
// missing or unconfirmed flag is named in the returned PreconditionError.
func CheckChecklist(action Action, required []string, flags map[string]bool) error {
	for _, name := range required {
		if !flags[name] {
			return &PreconditionError{
				Action: action,
				Guard:  fmt.Sprintf("checklist flag %q not confirmed", name),
			}
		}
	}
	return nil
}

func rolesList(roles []Role) string {
	out := ""
	for i, r := range roles {
		if i > 0 {
			out += " or "
		}
		out += string(r)
	}
	return out
}
