// Admission Policy (spec §4.6): a pure decision table evaluated per
// operation, shared verbatim by the REST handlers and the Relay so there is
// exactly one place the role rules live (§9: "the admission table should be
// a pure function shared by REST handlers and the Relay").
//
// Grounded in shape on the teacher's internal/server/handler.go guard-clause
// pipeline (each precondition is an independent early return rather than a
// nested conditional) — here collapsed into one table lookup instead of a
// sequence of inline checks, since the spec's rules are a closed table, not
// an open-ended pipeline of safety devices.
package coordination

// Operation identifies which row of the admission table (§4.6) applies.
type Operation string

const (
	OpEnqueue             Operation = "enqueue"
	OpRemove              Operation = "remove"
	OpOptimize            Operation = "optimize"
	OpRouteSelect         Operation = "route_select"
	OpAcquireLock         Operation = "acquire_lock"
	OpReleaseLock         Operation = "release_lock"
	OpManualNavigateCancel Operation = "manual_navigate_cancel"
	OpManualDrive         Operation = "manual_drive" // SET_MODE / DRIVE_COMMAND
)

// DecisionContext carries the bits of state the admission table needs
// beyond role alone.
type DecisionContext struct {
	ActiveRoutePresent bool // for OpAcquireLock
	HoldsActiveLock    bool // for OpManualDrive: does this caller hold it?
}

// Decision is the table's verdict.
type Decision struct {
	Allow  bool
	Silent bool   // true ⇒ on a WS frame, drop without any response
	Reason string // populated on refusal, e.g. "active route"
}

func allow() Decision   { return Decision{Allow: true} }
func deny(reason string) Decision { return Decision{Allow: false, Reason: reason} }
func denySilent() Decision { return Decision{Allow: false, Silent: true} }

// Decide is the single source of truth for role-based admission, per §4.6.
func Decide(op Operation, role Role, ctx DecisionContext) Decision {
	switch op {
	case OpEnqueue, OpRemove, OpOptimize:
		if role == RoleAdmin {
			return allow()
		}
		return deny("admin only")

	case OpRouteSelect:
		// All roles allowed at the admission layer; lock-state gating
		// ("Robot is manually locked") happens at the Coordinator, not here.
		return allow()

	case OpAcquireLock:
		if ctx.ActiveRoutePresent {
			if role == RoleAdmin {
				return allow() // forces the preemption path
			}
			return deny("active route")
		}
		switch role {
		case RoleAdmin:
			return allow() // may revoke another holder
		case RoleOperator:
			return allow() // contention itself is resolved by LockRegistry
		default:
			return deny("forbidden")
		}

	case OpReleaseLock:
		if role == RoleAdmin || role == RoleOperator {
			return allow()
		}
		return deny("forbidden")

	case OpManualNavigateCancel:
		if role == RoleAdmin {
			return allow()
		}
		return denySilent()

	case OpManualDrive:
		switch role {
		case RoleAdmin:
			return allow() // allowed without holding the lock
		case RoleOperator:
			if ctx.HoldsActiveLock {
				return allow()
			}
			return denySilent()
		default:
			return denySilent()
		}

	default:
		return deny("unknown operation")
	}
}
