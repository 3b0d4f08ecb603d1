// Package audit implements the Event Ledger (SPEC_FULL §4.10): a
// write-only, best-effort Redis Streams sink for telemetry, lock, and
// command events. It is never read back by the Coordinator — this is
// observability for a dashboard, not the persistence the spec's Non-goals
// explicitly exclude.
//
// Grounded on the teacher's internal/bridge/redis_publisher.go
// (PublishSensorData/PublishCommand over XAdd with MaxLen+Approx) and
// internal/server/handler.go's RedisPublisher interface / "best effort,
// ignore the error" call style.
package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robot-ai-webapp/coord-core/internal/coordination"
	"github.com/robot-ai-webapp/coord-core/internal/protocol"
	"go.uber.org/zap"
)

// streamMaxLen caps each stream's approximate length so an unattended
// deployment does not grow Redis memory without bound.
const streamMaxLen = 10000

// Ledger is a go-redis-backed implementation of coordination.AuditSink.
type Ledger struct {
	client *redis.Client
	logger *zap.Logger
}

// New constructs a Ledger. If client is nil, every method is a no-op —
// mirroring the teacher's "Redis connection failed, running without
// persistence" soft-fail in cmd/gateway/main.go.
func New(client *redis.Client, logger *zap.Logger) *Ledger {
	return &Ledger{client: client, logger: logger}
}

func (l *Ledger) add(ctx context.Context, stream string, values map[string]interface{}) {
	if l.client == nil {
		return
	}
	err := l.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		// Best-effort: the command/telemetry itself already happened, so a
		// failed audit write is logged and dropped, never surfaced to the
		// caller.
		l.logger.Warn("audit write failed", zap.String("stream", stream), zap.Error(err))
	}
}

// LogTelemetry records a telemetry update.
func (l *Ledger) LogTelemetry(ctx context.Context, t coordination.RobotTelemetry) {
	l.add(ctx, "coord:telemetry", map[string]interface{}{
		"system_health": string(t.SystemHealth),
		"battery_level": strconv.FormatFloat(t.BatteryLevel, 'f', -1, 64),
		"drive_mode":    string(t.DriveMode),
		"cargo_status":  string(t.CargoStatus),
		"position":      t.CurrentPosition,
		"last_node":     t.LastNode,
		"target_node":   t.TargetNode,
		"ts":            time.Now().UnixMilli(),
	})
}

// LogLockOutcome records an acquire/release/refuse outcome.
func (l *Ledger) LogLockOutcome(ctx context.Context, outcome coordination.LockOutcome) {
	l.add(ctx, "coord:lock", map[string]interface{}{
		"kind":    string(outcome.Kind),
		"held_by": outcome.HeldBy,
		"reason":  outcome.Reason,
		"ts":      time.Now().UnixMilli(),
	})
}

// LogCommand records a published RobotCommand.
func (l *Ledger) LogCommand(ctx context.Context, cmd protocol.RobotCommand) {
	l.add(ctx, "coord:command", map[string]interface{}{
		"kind":             string(cmd.Kind),
		"start":            cmd.Start,
		"destination":      cmd.Destination,
		"mode":             cmd.Mode,
		"linear_velocity":  strconv.FormatFloat(cmd.LinearVelocity, 'f', -1, 64),
		"angular_velocity": strconv.FormatFloat(cmd.AngularVelocity, 'f', -1, 64),
		"ts":               time.Now().UnixMilli(),
	})
}
