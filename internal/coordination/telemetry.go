package coordination

import (
	"context"
	"sync"
	"time"

	"github.com/robot-ai-webapp/coord-core/internal/clock"
)

// defaultStaleThreshold is the 30s robot staleness window spec §4.1/§6
// names; overridable via NewTelemetryStoreWithStaleness for ops tuning.
const defaultStaleThreshold = 30 * time.Second

// NodeFetcher is the outbound HTTP seam Telemetry Store uses for its
// one-shot /nodes fetch and GET /robot/check's /health probe. Implemented by
// internal/robotclient.Client; modeled as an interface here so the store
// stays testable without a real HTTP round trip.
type NodeFetcher interface {
	FetchNodes(ctx context.Context, baseURL string) ([]string, error)
	CheckHealth(ctx context.Context, baseURL string) bool
}

// TelemetrySnapshot is the read-only view returned by Snapshot, mirroring
// the {telemetry?, lastUpdate?, robotUrl?} tuple in spec §3.
type TelemetrySnapshot struct {
	Telemetry  RobotTelemetry
	HasTelemetry bool
	LastUpdate time.Time
	HasUpdate  bool
	RobotURL   string
	Connected  bool
}

// TelemetryStore holds the last reported robot state and liveness.
//
// Grounded on the teacher's internal/robot/manager.go: an atomic
// replace-under-RWMutex of the whole state value, generalized from a
// per-robot map to the spec's single robot, plus the write-once cachedNodes
// cache the teacher has no equivalent for.
type TelemetryStore struct {
	mu sync.RWMutex

	clock clock.Clock
	http  NodeFetcher
	stale time.Duration

	telemetry  *RobotTelemetry
	lastUpdate *time.Time
	robotURL   string

	cachedNodes []string // write-once-then-frozen, per invariant 5
}

// NewTelemetryStore constructs an empty store with the default 30s
// staleness threshold.
func NewTelemetryStore(c clock.Clock, http NodeFetcher) *TelemetryStore {
	return &TelemetryStore{clock: c, http: http, stale: defaultStaleThreshold}
}

// NewTelemetryStoreWithStaleness constructs a store with an overridden
// staleness window, for ops tuning via config.TimingConfig.Staleness().
func NewTelemetryStoreWithStaleness(c clock.Clock, http NodeFetcher, stale time.Duration) *TelemetryStore {
	return &TelemetryStore{clock: c, http: http, stale: stale}
}

// Replace overwrites telemetry and the lastUpdate timestamp. It returns the
// previous telemetry (ok=false if this is the first update), so callers can
// detect the IDLE route-completion edge without re-reading under a second
// lock acquisition.
func (s *TelemetryStore) Replace(t RobotTelemetry) (prev RobotTelemetry, hadPrev bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.telemetry != nil {
		prev, hadPrev = *s.telemetry, true
	}
	cp := t
	s.telemetry = &cp
	now := s.clock.Now()
	s.lastUpdate = &now
	return prev, hadPrev
}

// RegisterRobot records the robot's announced base URL (from /table/register
// or the UDP discovery listener). It is the single writer of robotURL
// alongside the Janitor's staleness clear.
func (s *TelemetryStore) RegisterRobot(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.robotURL = url
}

// Snapshot returns a read-only copy of the store's current state.
func (s *TelemetryStore) Snapshot() TelemetrySnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := TelemetrySnapshot{RobotURL: s.robotURL}
	if s.telemetry != nil {
		snap.Telemetry = *s.telemetry
		snap.HasTelemetry = true
	}
	if s.lastUpdate != nil {
		snap.LastUpdate = *s.lastUpdate
		snap.HasUpdate = true
		snap.Connected = s.clock.Now().Sub(*s.lastUpdate) < s.stale
	}
	return snap
}

// Connected reports the liveness predicate from §4.1 in isolation.
func (s *TelemetryStore) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastUpdate == nil {
		return false
	}
	return s.clock.Now().Sub(*s.lastUpdate) < s.stale
}

// Nodes returns the cached node list if present, else performs a one-shot
// fetch against robotUrl+"/nodes", caching the result on success and
// returning an empty list otherwise (§4.1). cachedNodes is write-once: once
// non-empty it is never reassigned (invariant 5).
func (s *TelemetryStore) Nodes(ctx context.Context) []string {
	s.mu.RLock()
	if len(s.cachedNodes) > 0 {
		nodes := s.cachedNodes
		s.mu.RUnlock()
		return nodes
	}
	baseURL := s.robotURL
	s.mu.RUnlock()

	if baseURL == "" || s.http == nil {
		return []string{}
	}

	nodes, err := s.http.FetchNodes(ctx, baseURL)
	if err != nil || len(nodes) == 0 {
		return []string{}
	}

	s.mu.Lock()
	if len(s.cachedNodes) == 0 {
		s.cachedNodes = nodes
	}
	cached := s.cachedNodes
	s.mu.Unlock()
	return cached
}

// ClearForStaleness implements the Janitor's staleness sweep (§4.5 step 2):
// robotURL is cleared so reachability probes correctly report "no robot",
// but cachedNodes and historical telemetry are deliberately preserved for
// UI continuity.
func (s *TelemetryStore) ClearForStaleness() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.robotURL = ""
}

// CheckRobot probes the registered robot's /health endpoint, unless the
// robot is already stale, in which case it reports disconnected without
// probing (spec §6, GET /robot/check).
func (s *TelemetryStore) CheckRobot(ctx context.Context) bool {
	if !s.Connected() {
		return false
	}
	s.mu.RLock()
	baseURL := s.robotURL
	s.mu.RUnlock()
	if baseURL == "" || s.http == nil {
		return false
	}
	return s.http.CheckHealth(ctx, baseURL)
}
