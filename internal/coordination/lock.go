package coordination

import (
	"sync"
	"time"

	"github.com/robot-ai-webapp/coord-core/internal/clock"
)

// defaultLockTTL is the 30s lease spec §3/§4.2 names; callers may override
// via NewLockRegistryWithTTL for ops tuning (SPEC_FULL §6).
const defaultLockTTL = 30 * time.Second

// LockOutcomeKind enumerates what acquire/release can report back.
type LockOutcomeKind string

const (
	LockAcquired LockOutcomeKind = "acquired"
	LockRefused  LockOutcomeKind = "refused"
	LockReleased LockOutcomeKind = "released"
	LockNotHolder LockOutcomeKind = "not_holder"
)

// LockOutcome is the result of an acquire/release call.
type LockOutcome struct {
	Kind   LockOutcomeKind
	HeldBy string // populated on LockRefused
	Reason string // populated on LockRefused, e.g. "active route"
	Lock   ManualLock
}

// LockRegistry holds the single process-wide manual-drive lock.
//
// Grounded on the teacher's internal/safety/operation_lock.go: the same
// Acquire/Release/Holder/cleanupExpired shape, narrowed from a per-robot
// keyed map to the spec's single lock, and from the teacher's fixed
// configured timeout to the spec's exact 30s TTL with admin force-revoke.
type LockRegistry struct {
	mu    sync.Mutex
	clock clock.Clock
	ttl   time.Duration
	lock  *ManualLock
}

// NewLockRegistry constructs an empty registry with the default 30s TTL.
func NewLockRegistry(c clock.Clock) *LockRegistry {
	return &LockRegistry{clock: c, ttl: defaultLockTTL}
}

// NewLockRegistryWithTTL constructs a registry with an overridden lease
// duration, for ops tuning via config.TimingConfig.LockTTL().
func NewLockRegistryWithTTL(c clock.Clock, ttl time.Duration) *LockRegistry {
	return &LockRegistry{clock: c, ttl: ttl}
}

// Acquire installs or renews the lock for (userID, role), per §4.2. Callers
// must have already run the Admission Policy check for this role/operation —
// this method only implements the lock-contention rules (same holder
// renews, Admin force-revokes, otherwise refused by current holder).
func (r *LockRegistry) Acquire(userID, name string, role Role) LockOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	cur := r.lock

	if cur == nil || !cur.Active(now) {
		return r.installLocked(userID, name, role, now)
	}
	if cur.HolderID == userID {
		// Renewal: same holder, expiry refreshed to now+30s.
		return r.installLocked(userID, name, role, now)
	}
	if role == RoleAdmin {
		return r.installLocked(userID, name, role, now)
	}
	return LockOutcome{Kind: LockRefused, HeldBy: cur.HolderName}
}

func (r *LockRegistry) installLocked(userID, name string, role Role, now time.Time) LockOutcome {
	l := ManualLock{
		HolderID:   userID,
		HolderName: name,
		HolderRole: role,
		AcquiredAt: now,
		ExpiresAt:  now.Add(r.ttl),
	}
	r.lock = &l
	return LockOutcome{Kind: LockAcquired, Lock: l}
}

// Release clears the lock if userID is the current, active holder.
func (r *LockRegistry) Release(userID string) LockOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if r.lock != nil && r.lock.Active(now) && r.lock.HolderID == userID {
		r.lock = nil
		return LockOutcome{Kind: LockReleased}
	}
	return LockOutcome{Kind: LockNotHolder}
}

// ForceRevoke unconditionally clears the lock. Used by Admin preemption
// (§4.4); the Janitor's expired-lock sweep uses clearIfExpired instead.
func (r *LockRegistry) ForceRevoke() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lock = nil
}

// Holder returns the current lock, but only if it is still active —
// expired locks must be invisible to every reader (§4.2, §9).
func (r *LockRegistry) Holder() (ManualLock, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.clock.Now()
	if r.lock == nil || !r.lock.Active(now) {
		return ManualLock{}, false
	}
	return *r.lock, true
}

// clearIfExpired is called by the Janitor: it physically removes a lock
// that has already become invisible via Holder(), so memory does not grow
// unbounded across many acquire/expire cycles.
func (r *LockRegistry) clearIfExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lock != nil && !r.lock.Active(r.clock.Now()) {
		r.lock = nil
	}
}
