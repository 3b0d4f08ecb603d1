package coordination

import (
	"context"

	"github.com/robot-ai-webapp/coord-core/internal/protocol"
	"go.uber.org/zap"
)

// evaluateScheduler implements §4.4's dispatch predicate. It is called on
// every event that could change eligibility: telemetry update, lock change,
// enqueue, dequeue, and every Janitor tick.
//
//	dispatchEligible ⇔  no active manual lock
//	                 ∧  connected (telemetry within 30s)
//	                 ∧  telemetry.driveMode == IDLE
//	                 ∧  activeRoute is null
//	                 ∧  pending queue is non-empty
//
// Per §5, eligibility is computed and the head route is popped under the
// Route Queue's own lock; the Command Bus publish happens afterward,
// outside any lock, so the Scheduler never holds a state lock across a
// suspension point.
func (c *Coordinator) evaluateScheduler() {
	if _, held := c.lock.Holder(); held {
		return
	}
	snap := c.telemetry.Snapshot()
	if !snap.Connected || !snap.HasTelemetry || snap.Telemetry.DriveMode != DriveIdle {
		return
	}

	route, dispatched := c.queue.PopHeadToActive()
	if !dispatched {
		return
	}

	c.logger.Info("dispatching route",
		zap.String("route_id", string(route.ID)),
		zap.String("start", route.Start),
		zap.String("destination", route.Destination),
	)
	c.publish(context.Background(), protocol.Navigate(route.Start, route.Destination))
}
