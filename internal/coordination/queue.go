package coordination

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// RouteQueue is the ordered pending sequence plus the single active route
// (spec §3, §4.3). Grounded on no single teacher file — the teacher has no
// queue of this shape — but follows the same "compute under lock, return a
// value copy" discipline as internal/safety/operation_lock.go.
type RouteQueue struct {
	mu      sync.Mutex
	pending []QueuedRoute
	active  *QueuedRoute
}

// NewRouteQueue constructs an empty queue.
func NewRouteQueue() *RouteQueue {
	return &RouteQueue{}
}

// Enqueue appends a new route to the pending sequence (Admin only — the
// caller is responsible for the Admission Policy check).
func (q *RouteQueue) Enqueue(start, destination, by string, now time.Time) QueuedRoute {
	q.mu.Lock()
	defer q.mu.Unlock()

	r := QueuedRoute{
		ID:          RouteID(uuid.NewString()),
		Start:       start,
		Destination: destination,
		CreatedBy:   by,
		CreatedAt:   now,
	}
	q.pending = append(q.pending, r)
	return r
}

// RemoveOutcome reports what Remove actually did, so the caller knows
// whether to publish CANCEL (§4.8: Active → Cancelled publishes CANCEL;
// Pending → Cancelled does not).
type RemoveOutcome struct {
	Found     bool
	WasActive bool
}

// Remove deletes id from the pending sequence, or clears it if it is the
// active route (Admin only).
func (q *RouteQueue) Remove(id RouteID) RemoveOutcome {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active != nil && q.active.ID == id {
		q.active = nil
		return RemoveOutcome{Found: true, WasActive: true}
	}
	for i, r := range q.pending {
		if r.ID == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return RemoveOutcome{Found: true}
		}
	}
	return RemoveOutcome{Found: false}
}

// List returns a snapshot of the pending sequence and the active route
// (any authenticated role may call this).
func (q *RouteQueue) List() (pending []QueuedRoute, active *QueuedRoute) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending = make([]QueuedRoute, len(q.pending))
	copy(pending, q.pending)
	if q.active != nil {
		a := *q.active
		active = &a
	}
	return pending, active
}

// ActiveRoutePresent reports whether an active route currently exists —
// used by Coordinator.AcquireLock for the Operator-specific refusal rule
// (§4.2) and by ApplyManualCommand to decide on Admin preemption (§4.4).
// The dispatch predicate relies on PopHeadToActive's own check instead.
func (q *RouteQueue) ActiveRoutePresent() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.active != nil
}

// PendingEmpty reports whether the pending sequence has no entries.
func (q *RouteQueue) PendingEmpty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) == 0
}

// PopHeadToActive pops the head of pending into active. Callers (the
// Scheduler) must only call this once the dispatch predicate has already
// been confirmed true; it does not re-check eligibility itself.
func (q *RouteQueue) PopHeadToActive() (QueuedRoute, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active != nil || len(q.pending) == 0 {
		return QueuedRoute{}, false
	}
	head := q.pending[0]
	q.pending = q.pending[1:]
	q.active = &head
	return head, true
}

// CompleteActive clears the active route, implementing the Telemetry
// Store's IDLE completion trigger (§4.1, §4.8: Active → Completed). It is a
// no-op returning ok=false if there was no active route, matching the
// "IDLE with no prior activeRoute → no action" Open Question resolution
// (spec §9).
func (q *RouteQueue) CompleteActive() (QueuedRoute, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active == nil {
		return QueuedRoute{}, false
	}
	done := *q.active
	q.active = nil
	return done, true
}

// Preempt implements the Admin-preemption queue rewrite (§4.4, §4.8): the
// current active route (if any) is prepended to pending at position 0, and
// the new route becomes active in its place. Returns the route that was
// preempted, if there was one.
func (q *RouteQueue) Preempt(newActive QueuedRoute) (preempted QueuedRoute, hadActive bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.active != nil {
		preempted = *q.active
		hadActive = true
		q.pending = append([]QueuedRoute{preempted}, q.pending...)
	}
	na := newActive
	q.active = &na
	return preempted, hadActive
}

// Optimize reorders the pending sequence so adjacent routes chain where
// prev.destination == next.start (§4.3). anchor is the robot's current
// position if no active route exists, or the active route's destination if
// one does — the caller (Coordinator) computes it since it requires
// reading Telemetry + this queue's active field together.
//
// Greedy rule (this is the Open Question resolution in spec §9: flagged as
// the intended semantics rather than guessed): starting from anchor,
// repeatedly pick the first remaining pending route whose Start equals the
// current anchor, advance the anchor to that route's Destination, and
// repeat; once no match is found, append the rest of the remaining routes
// in their original order. Ties (multiple routes starting at the same
// anchor) are broken by original insertion order (stable).
func (q *RouteQueue) Optimize(anchor string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	remaining := make([]QueuedRoute, len(q.pending))
	copy(remaining, q.pending)

	var ordered []QueuedRoute
	cur := anchor
	for len(remaining) > 0 {
		idx := -1
		for i, r := range remaining {
			if r.Start == cur {
				idx = i
				break
			}
		}
		if idx == -1 {
			// No chainable route from the current anchor: fall through to
			// the original order for everything left.
			ordered = append(ordered, remaining...)
			break
		}
		chosen := remaining[idx]
		ordered = append(ordered, chosen)
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		cur = chosen.Destination
	}
	q.pending = ordered
}
