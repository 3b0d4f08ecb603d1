// Package coordination implements the Robot Coordination Core: the
// Telemetry Store, Lock Registry, Route Queue, Command Bus, Scheduler,
// Janitor, and Admission Policy described in SPEC_FULL.md §4, wired
// together behind one Coordinator value (§9: "one Coordinator value behind
// a shared reference... no module-global singletons").
package coordination

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robot-ai-webapp/coord-core/internal/clock"
	"github.com/robot-ai-webapp/coord-core/internal/protocol"
	"go.uber.org/zap"
)

// AuditSink is the Event Ledger's seam into the Coordinator — write-only,
// best-effort, never read back (SPEC_FULL §4.10). A nil AuditSink is valid
// and every call site here is safe against it.
type AuditSink interface {
	LogTelemetry(ctx context.Context, t RobotTelemetry)
	LogLockOutcome(ctx context.Context, outcome LockOutcome)
	LogCommand(ctx context.Context, cmd protocol.RobotCommand)
}

// Coordinator is the single owner of all coordination state. Its four
// stateful components each guard their own mutex; an operation that needs
// more than one takes them one after another and never holds two
// simultaneously, so no nested lock order exists to deadlock on (the
// sequence varies by operation) — each component snapshot is a short,
// lock-scoped read or write, with any I/O (Command Bus publish, Event
// Ledger write) happening after release.
type Coordinator struct {
	clock  clock.Clock
	logger *zap.Logger

	telemetry *TelemetryStore
	queue     *RouteQueue
	lock      *LockRegistry
	bus       *CommandBus

	ledger AuditSink
}

// New constructs a Coordinator with the spec's default 30s lock TTL and
// staleness window. ledger may be nil (audit becomes a no-op).
func New(c clock.Clock, logger *zap.Logger, http NodeFetcher, ledger AuditSink) *Coordinator {
	return &Coordinator{
		clock:     c,
		logger:    logger,
		telemetry: NewTelemetryStore(c, http),
		queue:     NewRouteQueue(),
		lock:      NewLockRegistry(c),
		bus:       NewCommandBus(),
		ledger:    ledger,
	}
}

// NewWithTiming constructs a Coordinator with ops-overridden lock TTL and
// staleness window (config.TimingConfig.LockTTL/.Staleness), leaving the
// janitor sweep interval to the caller's separate NewJanitorWithInterval.
func NewWithTiming(c clock.Clock, logger *zap.Logger, http NodeFetcher, ledger AuditSink, lockTTL, staleness time.Duration) *Coordinator {
	return &Coordinator{
		clock:     c,
		logger:    logger,
		telemetry: NewTelemetryStoreWithStaleness(c, http, staleness),
		queue:     NewRouteQueue(),
		lock:      NewLockRegistryWithTTL(c, lockTTL),
		bus:       NewCommandBus(),
		ledger:    ledger,
	}
}

// audit dispatches an Event Ledger write on its own goroutine: the ledger is
// best-effort and asynchronous (SPEC_FULL §4.10), so callers on the
// telemetry-ingest, lock, and command-publish paths never block on Redis
// round-trip latency.
func (c *Coordinator) audit(ctx context.Context, fn func(AuditSink)) {
	if c.ledger == nil {
		return
	}
	go fn(c.ledger)
}

// --- Telemetry ingest -------------------------------------------------

// UpdateTelemetry implements POST /table/state's effect on the core
// (§4.1): replace telemetry, and if the robot reports IDLE while a route is
// active, clear it (the sole completion trigger) before re-running the
// Scheduler.
func (c *Coordinator) UpdateTelemetry(ctx context.Context, t RobotTelemetry) {
	c.telemetry.Replace(t)
	c.audit(ctx, func(s AuditSink) { s.LogTelemetry(ctx, t) })

	if t.DriveMode == DriveIdle {
		if done, ok := c.queue.CompleteActive(); ok {
			c.logger.Info("route completed",
				zap.String("route_id", string(done.ID)),
				zap.String("start", done.Start),
				zap.String("destination", done.Destination),
			)
		}
	}
	c.evaluateScheduler()
}

// RegisterRobot implements POST /table/register and the UDP discovery
// listener's effect: record the robot's base URL.
func (c *Coordinator) RegisterRobot(url string) {
	c.telemetry.RegisterRobot(url)
}

// RecordEvent logs a RobotEvent (POST /table/event) through the process
// logger; it is not written to the Event Ledger. The spec names no state
// transition it triggers beyond telemetry's own updateTelemetry, so this is
// observability only.
func (c *Coordinator) RecordEvent(ctx context.Context, ev RobotEvent) {
	c.logger.Info("robot event", zap.String("event", ev.Event), zap.Time("timestamp", ev.Timestamp))
}

// --- Status / read endpoints -------------------------------------------

// StatusView is the shape of GET /status (spec §6).
type StatusView struct {
	SystemHealth         SystemHealth
	BatteryLevel         float64
	DriveMode            DriveMode
	CargoStatus          CargoStatus
	HasLastRoute         bool
	LastNode             string
	TargetNode           string
	Position             string
	ManualLockHolderName string
	HasLockHolder        bool
	RobotConnected       bool
}

// Status builds the GET /status response.
func (c *Coordinator) Status() StatusView {
	snap := c.telemetry.Snapshot()
	view := StatusView{RobotConnected: snap.Connected}
	if snap.HasTelemetry {
		t := snap.Telemetry
		view.SystemHealth = t.SystemHealth
		view.BatteryLevel = t.BatteryLevel
		view.DriveMode = t.DriveMode
		view.CargoStatus = t.CargoStatus
		view.Position = t.CurrentPosition
		// lastRoute is non-null only if both lastNode and targetNode are
		// present, per §6 — not derived from the Route Queue's active
		// route, which is a distinct concept from telemetry's own fields.
		if t.LastNode != "" && t.TargetNode != "" {
			view.HasLastRoute = true
			view.LastNode = t.LastNode
			view.TargetNode = t.TargetNode
		}
	}
	if holder, ok := c.lock.Holder(); ok {
		view.HasLockHolder = true
		view.ManualLockHolderName = holder.HolderName
	}
	return view
}

// Nodes returns the robot's node list (GET /nodes).
func (c *Coordinator) Nodes(ctx context.Context) []string {
	return c.telemetry.Nodes(ctx)
}

// CheckRobot implements GET /robot/check.
func (c *Coordinator) CheckRobot(ctx context.Context) bool {
	return c.telemetry.CheckRobot(ctx)
}

// ListRoutes implements GET /routes — any authenticated role.
func (c *Coordinator) ListRoutes() ([]QueuedRoute, *QueuedRoute) {
	return c.queue.List()
}

// --- Route Queue administration ----------------------------------------

// EnqueueRoute implements POST /routes (Admin only).
func (c *Coordinator) EnqueueRoute(role Role, start, destination, by string) (QueuedRoute, error) {
	if d := Decide(OpEnqueue, role, DecisionContext{}); !d.Allow {
		return QueuedRoute{}, fmt.Errorf("forbidden: %s", d.Reason)
	}
	r := c.queue.Enqueue(start, destination, by, c.clock.Now())
	c.evaluateScheduler()
	return r, nil
}

// RemoveRoute implements DELETE /routes/:id (Admin only). If id is the
// active route, a CANCEL is published (§4.8: Active → Cancelled).
func (c *Coordinator) RemoveRoute(role Role, id RouteID) error {
	if d := Decide(OpRemove, role, DecisionContext{}); !d.Allow {
		return fmt.Errorf("forbidden: %s", d.Reason)
	}
	outcome := c.queue.Remove(id)
	if !outcome.Found {
		return fmt.Errorf("not found")
	}
	if outcome.WasActive {
		c.publish(context.Background(), protocol.Cancel())
	}
	c.evaluateScheduler()
	return nil
}

// OptimizeRoutes implements POST /routes/optimize (Admin only). The anchor
// is the active route's destination if one exists, else the robot's
// current known position (§4.3).
func (c *Coordinator) OptimizeRoutes(role Role) error {
	if d := Decide(OpOptimize, role, DecisionContext{}); !d.Allow {
		return fmt.Errorf("forbidden: %s", d.Reason)
	}
	_, active := c.queue.List()
	anchor := ""
	if active != nil {
		anchor = active.Destination
	} else {
		anchor = c.telemetry.Snapshot().Telemetry.CurrentPosition
	}
	c.queue.Optimize(anchor)
	return nil
}

// SelectRoute implements POST /routes/select (spec §6): always succeeds at
// the transport level (HTTP 200); the returned ok/message pair is rendered
// into {status,message} by the HTTP handler. All roles are admitted by the
// table (§4.6); the only gate is an active manual lock.
func (c *Coordinator) SelectRoute(role Role, by, destination string) (ok bool, message string) {
	if d := Decide(OpRouteSelect, role, DecisionContext{}); !d.Allow {
		return false, d.Reason
	}
	if _, held := c.lock.Holder(); held {
		return false, "Robot is manually locked"
	}

	_, active := c.queue.List()
	start := c.telemetry.Snapshot().Telemetry.CurrentPosition
	if active != nil {
		start = active.Destination
	}

	newActive := QueuedRoute{
		ID:          RouteID(uuid.NewString()),
		Start:       start,
		Destination: destination,
		CreatedBy:   by,
		CreatedAt:   c.clock.Now(),
	}
	// Reuse the preemption machinery: if a route happens to be active
	// already (lock check above passed because no *lock* is held, which is
	// independent of whether a route is active), it returns to the head of
	// pending exactly like an Admin preemption would.
	preempted, hadActive := c.queue.Preempt(newActive)
	if hadActive {
		c.publish(context.Background(), protocol.Cancel())
		c.logger.Info("route preempted via /routes/select",
			zap.String("route_id", string(preempted.ID)))
	}
	c.publish(context.Background(), protocol.Navigate(start, destination))
	return true, "navigating"
}

// --- Lock Registry -------------------------------------------------------

// AcquireLock implements POST /drive/lock (§4.2, §4.6).
func (c *Coordinator) AcquireLock(role Role, userID, name string) LockOutcome {
	activeRoute := c.queue.ActiveRoutePresent()
	if d := Decide(OpAcquireLock, role, DecisionContext{ActiveRoutePresent: activeRoute}); !d.Allow {
		outcome := LockOutcome{Kind: LockRefused, Reason: d.Reason}
		c.audit(context.Background(), func(s AuditSink) { s.LogLockOutcome(context.Background(), outcome) })
		return outcome
	}
	outcome := c.lock.Acquire(userID, name, role)
	c.audit(context.Background(), func(s AuditSink) { s.LogLockOutcome(context.Background(), outcome) })
	c.evaluateScheduler()
	return outcome
}

// ReleaseLock implements DELETE /drive/lock.
func (c *Coordinator) ReleaseLock(role Role, userID string) LockOutcome {
	if d := Decide(OpReleaseLock, role, DecisionContext{}); !d.Allow {
		outcome := LockOutcome{Kind: LockNotHolder, Reason: d.Reason}
		c.audit(context.Background(), func(s AuditSink) { s.LogLockOutcome(context.Background(), outcome) })
		return outcome
	}
	outcome := c.lock.Release(userID)
	c.audit(context.Background(), func(s AuditSink) { s.LogLockOutcome(context.Background(), outcome) })
	c.evaluateScheduler()
	return outcome
}

// --- Command Bus passthrough ---------------------------------------------

// Subscribe exposes the Command Bus to the downlink WebSocket handler.
func (c *Coordinator) Subscribe() *Subscription { return c.bus.Subscribe() }

// Unsubscribe exposes the Command Bus to the downlink WebSocket handler.
func (c *Coordinator) Unsubscribe(sub *Subscription) { c.bus.Unsubscribe(sub) }

func (c *Coordinator) publish(ctx context.Context, cmd protocol.RobotCommand) {
	c.bus.Publish(cmd)
	c.audit(ctx, func(s AuditSink) { s.LogCommand(ctx, cmd) })
}

// --- Relay entry point ----------------------------------------------------

// ApplyManualCommand implements §4.7 steps 2–5 for one already-decoded
// frame from the manual-drive WebSocket (step 1, parsing, is the caller's
// job — a parse failure never reaches here). It returns false when the
// frame must be silently dropped.
func (c *Coordinator) ApplyManualCommand(role Role, userID string, cmd protocol.RobotCommand) bool {
	if !cmd.Kind.Allowed() {
		return false
	}

	switch cmd.Kind {
	case protocol.KindNavigate, protocol.KindCancel:
		d := Decide(OpManualNavigateCancel, role, DecisionContext{})
		if !d.Allow {
			return false
		}
		if cmd.Kind == protocol.KindNavigate && role == RoleAdmin && c.queue.ActiveRoutePresent() {
			c.adminPreempt(userID, cmd.Start, cmd.Destination)
			return true
		}
		c.publish(context.Background(), cmd)
		return true

	case protocol.KindSetMode, protocol.KindDriveCommand:
		holdsActiveLock := false
		if h, ok := c.lock.Holder(); ok {
			holdsActiveLock = h.HolderID == userID
		}
		d := Decide(OpManualDrive, role, DecisionContext{HoldsActiveLock: holdsActiveLock})
		if !d.Allow {
			return false
		}
		c.publish(context.Background(), cmd)
		return true
	}
	return false
}

// adminPreempt implements §4.4's Admin preemption procedure: force-revoke
// the lock, return the current active route to the head of pending,
// install the admin's NAVIGATE as the new active route, and publish CANCEL
// then NAVIGATE in that order.
func (c *Coordinator) adminPreempt(by, start, destination string) {
	c.lock.ForceRevoke()

	newActive := QueuedRoute{
		ID:          RouteID(uuid.NewString()),
		Start:       start,
		Destination: destination,
		CreatedBy:   by,
		CreatedAt:   c.clock.Now(),
	}
	preempted, hadActive := c.queue.Preempt(newActive)
	if hadActive {
		c.logger.Info("admin preemption",
			zap.String("preempted_route_id", string(preempted.ID)))
	}
	c.publish(context.Background(), protocol.Cancel())
	c.publish(context.Background(), protocol.Navigate(start, destination))
}
