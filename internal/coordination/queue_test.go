package coordination

import (
	"testing"
	"time"
)

func TestQueueEnqueueAndPopHeadToActive(t *testing.T) {
	q := NewRouteQueue()
	now := time.Unix(0, 0)

	q.Enqueue("Home", "Kitchen", "admin-1", now)
	q.Enqueue("Kitchen", "Office", "admin-1", now)

	route, dispatched := q.PopHeadToActive()
	if !dispatched || route.Start != "Home" || route.Destination != "Kitchen" {
		t.Fatalf("PopHeadToActive = (%+v, %v), want (Home->Kitchen, true)", route, dispatched)
	}

	// Invariant 2: activeRoute is not simultaneously present in pending.
	pending, active := q.List()
	if len(pending) != 1 || pending[0].Destination != "Office" {
		t.Errorf("pending = %+v, want one entry Kitchen->Office", pending)
	}
	if active == nil || active.Destination != "Kitchen" {
		t.Errorf("active = %+v, want Home->Kitchen", active)
	}
	for _, p := range pending {
		if active != nil && p.ID == active.ID {
			t.Error("invariant 2 violated: active route id also present in pending")
		}
	}
}

func TestQueuePopHeadToActiveNoopWhenAlreadyActive(t *testing.T) {
	q := NewRouteQueue()
	now := time.Unix(0, 0)
	q.Enqueue("A", "B", "admin", now)
	q.Enqueue("B", "C", "admin", now)

	q.PopHeadToActive()
	_, dispatched := q.PopHeadToActive()
	if dispatched {
		t.Error("PopHeadToActive dispatched a second route while one was already active")
	}
}

func TestQueueCompleteActiveClearsExactlyThatRoute(t *testing.T) {
	q := NewRouteQueue()
	now := time.Unix(0, 0)
	q.Enqueue("A", "B", "admin", now)
	q.Enqueue("B", "C", "admin", now)
	q.PopHeadToActive()

	done, ok := q.CompleteActive()
	if !ok || done.Destination != "B" {
		t.Fatalf("CompleteActive = (%+v, %v), want (A->B, true)", done, ok)
	}

	pending, active := q.List()
	if active != nil {
		t.Errorf("active after CompleteActive = %+v, want nil", active)
	}
	if len(pending) != 1 || pending[0].Destination != "C" {
		t.Errorf("pending after CompleteActive = %+v, want one entry B->C untouched", pending)
	}
}

func TestQueueCompleteActiveNoopWithoutActiveRoute(t *testing.T) {
	q := NewRouteQueue()
	if _, ok := q.CompleteActive(); ok {
		t.Error("CompleteActive() on an empty queue reported ok=true")
	}
}

func TestQueueRemovePendingDoesNotPublishCancel(t *testing.T) {
	q := NewRouteQueue()
	now := time.Unix(0, 0)
	r := q.Enqueue("A", "B", "admin", now)

	outcome := q.Remove(r.ID)
	if !outcome.Found || outcome.WasActive {
		t.Errorf("Remove(pending) = %+v, want Found=true WasActive=false", outcome)
	}
}

func TestQueueRemoveActiveReportsWasActive(t *testing.T) {
	q := NewRouteQueue()
	now := time.Unix(0, 0)
	r := q.Enqueue("A", "B", "admin", now)
	q.PopHeadToActive()

	outcome := q.Remove(r.ID)
	if !outcome.Found || !outcome.WasActive {
		t.Errorf("Remove(active) = %+v, want Found=true WasActive=true", outcome)
	}
	if _, active := q.List(); active != nil {
		t.Error("active route still present after Remove")
	}
}

func TestQueueRemoveUnknownIDNotFound(t *testing.T) {
	q := NewRouteQueue()
	if outcome := q.Remove(RouteID("nope")); outcome.Found {
		t.Error("Remove(unknown id) reported Found=true")
	}
}

// TestQueuePreemptRestoresOriginalStart implements the round-trip law:
// "Admin preemption followed by the robot going IDLE returns the preempted
// route to the head and re-dispatches it from its original start."
func TestQueuePreemptRestoresOriginalStart(t *testing.T) {
	q := NewRouteQueue()
	now := time.Unix(0, 0)
	q.Enqueue("A", "B", "admin", now)
	q.PopHeadToActive() // active = A->B

	preempted, hadActive := q.Preempt(QueuedRoute{ID: "admin-preempt", Start: "C", Destination: "D", CreatedBy: "admin", CreatedAt: now})
	if !hadActive || preempted.Start != "A" || preempted.Destination != "B" {
		t.Fatalf("Preempt = (%+v, %v), want (A->B, true)", preempted, hadActive)
	}

	pending, active := q.List()
	if active == nil || active.Start != "C" || active.Destination != "D" {
		t.Fatalf("active after Preempt = %+v, want C->D", active)
	}
	if len(pending) != 1 || pending[0].Start != "A" || pending[0].Destination != "B" {
		t.Fatalf("pending after Preempt = %+v, want [A->B] at head", pending)
	}

	// Robot goes IDLE: the admin's route completes...
	q.CompleteActive()
	// ...and the next dispatch must re-pop A->B with its original start
	// unchanged — not C (the preemption anchor).
	route, dispatched := q.PopHeadToActive()
	if !dispatched || route.Start != "A" || route.Destination != "B" {
		t.Fatalf("re-dispatch after preemption = (%+v, %v), want A->B restored", route, dispatched)
	}
}

func TestQueuePreemptWithoutActiveRoute(t *testing.T) {
	q := NewRouteQueue()
	_, hadActive := q.Preempt(QueuedRoute{ID: "x", Start: "A", Destination: "B"})
	if hadActive {
		t.Error("Preempt on an empty queue reported hadActive=true")
	}
}

func TestQueueOptimizeChainsAdjacentRoutes(t *testing.T) {
	q := NewRouteQueue()
	now := time.Unix(0, 0)
	// Enqueued out of chain order: Office->Lab, Home->Kitchen, Kitchen->Office.
	q.Enqueue("Office", "Lab", "admin", now)
	q.Enqueue("Home", "Kitchen", "admin", now)
	q.Enqueue("Kitchen", "Office", "admin", now)

	q.Optimize("Home")

	pending, _ := q.List()
	want := []string{"Kitchen", "Office", "Lab"}
	if len(pending) != 3 {
		t.Fatalf("Optimize produced %d routes, want 3", len(pending))
	}
	for i, r := range pending {
		if r.Destination != want[i] {
			t.Errorf("pending[%d].Destination = %q, want %q (order: %+v)", i, r.Destination, want[i], pending)
		}
	}
}

func TestQueueOptimizeFallsThroughOnNoChain(t *testing.T) {
	q := NewRouteQueue()
	now := time.Unix(0, 0)
	q.Enqueue("X", "Y", "admin", now)
	q.Enqueue("Z", "W", "admin", now)

	q.Optimize("Home") // matches nothing
	pending, _ := q.List()
	if len(pending) != 2 || pending[0].Start != "X" || pending[1].Start != "Z" {
		t.Errorf("Optimize with no chainable route reordered: %+v, want original order preserved", pending)
	}
}

func TestQueueOptimizeNeverMovesActiveRoute(t *testing.T) {
	q := NewRouteQueue()
	now := time.Unix(0, 0)
	q.Enqueue("A", "B", "admin", now)
	q.PopHeadToActive()
	q.Enqueue("C", "D", "admin", now)

	q.Optimize("B")

	_, active := q.List()
	if active == nil || active.Start != "A" {
		t.Errorf("active route changed by Optimize: %+v, want A->B untouched", active)
	}
}
