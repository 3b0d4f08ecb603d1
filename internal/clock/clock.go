// Package clock provides an injectable time source.
//
// The Lock Registry, Telemetry Store, and Janitor all compare timestamps
// against a 30s/30s/5s family of constants. Driving those comparisons off
// time.Now() directly makes the timing-sensitive scenarios in the spec
// (renewal at t=0/15/30/45/46/60, staleness after 30s) impossible to test
// without real sleeps. Clock is the seam: production wiring uses RealClock,
// tests use FakeClock and advance it explicitly.
package clock

import (
	"sync"
	"time"
)

// Clock is the minimal time source the coordination package depends on.
type Clock interface {
	Now() time.Time
}

// RealClock delegates to the standard library.
type RealClock struct{}

// Now returns the current wall-clock time.
func (RealClock) Now() time.Time { return time.Now() }

// FakeClock is a manually-advanced clock for deterministic tests.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a FakeClock starting at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Now returns the clock's current value.
func (f *FakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *FakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set pins the clock to an absolute time.
func (f *FakeClock) Set(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}
