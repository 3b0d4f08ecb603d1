package coordination

import (
	"testing"
	"time"

	"github.com/robot-ai-webapp/coord-core/internal/clock"
)

func TestLockAcquireInstallsWithThirtySecondTTL(t *testing.T) {
	c := clock.NewFakeClock(time.Unix(0, 0))
	r := NewLockRegistry(c)

	outcome := r.Acquire("u1", "Ada", RoleOperator)
	if outcome.Kind != LockAcquired {
		t.Fatalf("Acquire = %+v, want LockAcquired", outcome)
	}
	if want := c.Now().Add(30 * time.Second); !outcome.Lock.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want acquiredAt+30s = %v", outcome.Lock.ExpiresAt, want)
	}
}

func TestLockSecondAcquireBySameUserIsRenewal(t *testing.T) {
	c := clock.NewFakeClock(time.Unix(0, 0))
	r := NewLockRegistry(c)

	first := r.Acquire("u1", "Ada", RoleOperator)
	c.Advance(5 * time.Second)
	second := r.Acquire("u1", "Ada", RoleOperator)

	if second.Kind != LockAcquired {
		t.Fatalf("second Acquire = %+v, want LockAcquired", second)
	}
	if second.Lock.HolderID != first.Lock.HolderID {
		t.Errorf("renewal changed holder: %v -> %v", first.Lock.HolderID, second.Lock.HolderID)
	}
	if !second.Lock.ExpiresAt.After(first.Lock.ExpiresAt) {
		t.Errorf("renewal did not advance expiry: %v -> %v", first.Lock.ExpiresAt, second.Lock.ExpiresAt)
	}
}

func TestLockRefusesOtherOperatorWhileHeld(t *testing.T) {
	c := clock.NewFakeClock(time.Unix(0, 0))
	r := NewLockRegistry(c)

	r.Acquire("u1", "Ada", RoleOperator)
	outcome := r.Acquire("u2", "Bob", RoleOperator)
	if outcome.Kind != LockRefused {
		t.Fatalf("Acquire by second operator = %+v, want LockRefused", outcome)
	}
	if outcome.HeldBy != "Ada" {
		t.Errorf("HeldBy = %q, want Ada", outcome.HeldBy)
	}
}

func TestLockAdminForceRevokesOtherHolder(t *testing.T) {
	c := clock.NewFakeClock(time.Unix(0, 0))
	r := NewLockRegistry(c)

	r.Acquire("u1", "Ada", RoleOperator)
	outcome := r.Acquire("u2", "Carol", RoleAdmin)
	if outcome.Kind != LockAcquired {
		t.Fatalf("Admin Acquire = %+v, want LockAcquired", outcome)
	}
	holder, ok := r.Holder()
	if !ok || holder.HolderID != "u2" {
		t.Errorf("Holder() = (%+v, %v), want u2 Carol", holder, ok)
	}
}

func TestLockHolderInvisibleOnceExpired(t *testing.T) {
	c := clock.NewFakeClock(time.Unix(0, 0))
	r := NewLockRegistry(c)

	r.Acquire("u1", "Ada", RoleOperator)
	c.Advance(30*time.Second + time.Nanosecond)

	if _, ok := r.Holder(); ok {
		t.Error("Holder() returned ok=true for an expired lock, want ok=false")
	}
}

func TestLockReleaseOnlyByHolder(t *testing.T) {
	c := clock.NewFakeClock(time.Unix(0, 0))
	r := NewLockRegistry(c)
	r.Acquire("u1", "Ada", RoleOperator)

	if outcome := r.Release("u2"); outcome.Kind != LockNotHolder {
		t.Errorf("Release by non-holder = %+v, want LockNotHolder", outcome)
	}
	if outcome := r.Release("u1"); outcome.Kind != LockReleased {
		t.Errorf("Release by holder = %+v, want LockReleased", outcome)
	}
	if _, ok := r.Holder(); ok {
		t.Error("Holder() still true after Release")
	}
}

func TestLockForceRevokeClearsUnconditionally(t *testing.T) {
	c := clock.NewFakeClock(time.Unix(0, 0))
	r := NewLockRegistry(c)
	r.Acquire("u1", "Ada", RoleOperator)

	r.ForceRevoke()
	if _, ok := r.Holder(); ok {
		t.Error("Holder() true after ForceRevoke")
	}
}

// TestLockRenewalScenario implements spec §8 end-to-end scenario 6:
// Operator acquires at t=0, renews at t=15, t=30, t=45; the lock remains
// continuously active; at t=46, holder() still reports the Operator.
//
// Each renewal resets expiresAt to renewalTime+30s (invariant 1), so the
// last renewal at t=45 keeps the lock alive through t=75, not t=60 as one
// reading of the scenario's prose might suggest — this test asserts the
// expiry math invariant 1 actually specifies rather than that looser prose.
func TestLockRenewalScenario(t *testing.T) {
	start := time.Unix(0, 0)
	c := clock.NewFakeClock(start)
	r := NewLockRegistry(c)

	r.Acquire("operator-1", "Ada", RoleOperator)

	for _, elapsed := range []time.Duration{15 * time.Second, 30 * time.Second, 45 * time.Second} {
		c.Set(start.Add(elapsed))
		if outcome := r.Acquire("operator-1", "Ada", RoleOperator); outcome.Kind != LockAcquired {
			t.Fatalf("renewal at t=%v = %+v, want LockAcquired", elapsed, outcome)
		}
	}

	c.Set(start.Add(46 * time.Second))
	holder, ok := r.Holder()
	if !ok || holder.HolderID != "operator-1" {
		t.Errorf("holder() at t=46 = (%+v, %v), want operator-1 present", holder, ok)
	}

	c.Set(start.Add(74 * time.Second))
	if _, ok := r.Holder(); !ok {
		t.Error("holder() at t=74 returned absent, want present (last renewal at t=45 expires at t=75)")
	}

	c.Set(start.Add(75*time.Second + time.Second))
	if _, ok := r.Holder(); ok {
		t.Error("holder() past t=75 returned present, want absent")
	}
}
