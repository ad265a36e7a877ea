// Package policy decides whether a caller may perform a task operation.
// It only looks at the operation and the verified identity (or its absence),
// never at how the identity was obtained.
package policy

import "taskapi/internal/models/user"

type Operation string

const (
	ListTasks   Operation = "list_tasks"
	FilterTasks Operation = "filter_tasks"
	GetTask     Operation = "get_task"
	CreateTask  Operation = "create_task"
	UpdateTask  Operation = "update_task"
	DeleteTask  Operation = "delete_task"
)

type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
	ReasonUnknown         Reason = "unknown_operation"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason Reason) Decision {
	return Decision{Allowed: false, Reason: reason}
}

type Policy struct {
	// RequireAuthForCreate closes task creation to anonymous callers.
	// Off by default: anonymous creation is the observed behavior.
	RequireAuthForCreate bool
}

// Authorize is evaluated per request; identity == nil means anonymous.
func (p Policy) Authorize(op Operation, identity *user.Identity) Decision {
	switch op {
	case ListTasks, FilterTasks, GetTask:
		return allow()

	case CreateTask:
		if p.RequireAuthForCreate && identity == nil {
			return deny(ReasonUnauthenticated)
		}
		return allow()

	case UpdateTask:
		if identity == nil {
			return deny(ReasonUnauthenticated)
		}
		return allow()

	case DeleteTask:
		if identity == nil {
			return deny(ReasonUnauthenticated)
		}
		if !identity.IsStaff {
			return deny(ReasonForbidden)
		}
		return allow()
	}

	return deny(ReasonUnknown)
}
