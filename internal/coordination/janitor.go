package coordination

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// defaultJanitorInterval is the 5s wake cadence spec §4.5/§6 names;
// overridable via NewJanitorWithInterval for ops tuning.
const defaultJanitorInterval = 5 * time.Second

// Janitor is the sole source of time-based transitions (§5): it wakes every
// 5s, clears a physically-present expired lock, clears stale-robot
// artifacts, and re-evaluates the Scheduler.
//
// Grounded directly on the teacher's internal/safety/timeout_watchdog.go:
// the same context.WithCancel + time.NewTicker + select{ctx.Done/ticker.C}
// run loop, re-themed from per-robot velocity zeroing to the three-step
// sweep in §4.5.
type Janitor struct {
	coord    *Coordinator
	logger   *zap.Logger
	interval time.Duration
	cancel   context.CancelFunc
}

// NewJanitor constructs a Janitor bound to coord with the default 5s
// interval.
func NewJanitor(coord *Coordinator, logger *zap.Logger) *Janitor {
	return &Janitor{coord: coord, logger: logger, interval: defaultJanitorInterval}
}

// NewJanitorWithInterval constructs a Janitor with an overridden sweep
// cadence, for ops tuning via config.TimingConfig.JanitorInterval().
func NewJanitorWithInterval(coord *Coordinator, logger *zap.Logger, interval time.Duration) *Janitor {
	return &Janitor{coord: coord, logger: logger, interval: interval}
}

// Start begins the background sweep goroutine. Stop (or cancelling ctx)
// ends it.
func (j *Janitor) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	go j.run(runCtx)
}

// Stop ends the sweep goroutine.
func (j *Janitor) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
}

func (j *Janitor) run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

// sweep performs the three ordered steps of §4.5.
func (j *Janitor) sweep() {
	// 1. Clear a physically-present expired lock (holder() already treats
	// it as absent; this just reclaims the memory).
	j.coord.lock.clearIfExpired()

	// 2. If the robot is stale, clear activeRoute and robotUrl — but never
	// cachedNodes or historical telemetry.
	if !j.coord.telemetry.Connected() {
		if _, hadActive := j.coord.queue.CompleteActive(); hadActive {
			j.logger.Info("janitor cleared active route for stale robot")
		}
		j.coord.telemetry.ClearForStaleness()
	}

	// 3. Re-evaluate dispatch eligibility.
	j.coord.evaluateScheduler()
}
