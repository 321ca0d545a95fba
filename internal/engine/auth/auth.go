package auth

import (
	"fmt"

	"taskline/internal/domain"
	"taskline/internal/errs"
)

// Action names an operation subject to the role policy.
type Action string

const (
	CreateProject Action = "project.create"
	UpdateProject Action = "project.update"
	DeleteProject Action = "project.delete"
	RegisterUser  Action = "user.register"
	DeleteUser    Action = "user.delete"
	CreateState   Action = "state.create"
	UpdateState   Action = "state.update"
	DeleteState   Action = "state.delete"
	CreateTask    Action = "task.create"
	UpdateTask    Action = "task.update"
	DeleteTask    Action = "task.delete"
)

// ForbiddenError indicates the actor's role may not perform Action.
type ForbiddenError struct {
	Action Action
	Role   domain.Role
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("role %s may not perform %s", e.Role, e.Action)
}

// Authorize decides whether role may perform action on target. target is
// the id of the affected record and does not change the outcome today.
// Rules are checked in order; the first that applies wins.
func Authorize(role domain.Role, action Action, target string) error {
	switch action {
	case CreateProject, UpdateProject, RegisterUser:
		if role != domain.RoleAdmin {
			return deny(role, action, target)
		}
	case DeleteUser:
		if role == domain.RoleMate {
			return deny(role, action, target)
		}
	}
	return nil
}

func deny(role domain.Role, action Action, target string) error {
	return &errs.Error{
		Kind: errs.AuthorizationDenied,
		Op:   string(action),
		ID:   target,
		Msg:  "permission denied",
		Err:  ForbiddenError{Action: action, Role: role},
	}
}
