package coordination

import (
	"context"
	"sync"

	"github.com/robot-ai-webapp/coord-core/internal/protocol"
)

// fakeFetcher is a stand-in for robotclient.Client: no real HTTP round
// trip, just queued canned answers, matching the teacher's tests/
// helpers_test.go style of a minimal mock satisfying the adapter interface.
type fakeFetcher struct {
	mu     sync.Mutex
	nodes  []string
	nodesErr error
	healthy bool
}

func (f *fakeFetcher) FetchNodes(ctx context.Context, baseURL string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nodes, f.nodesErr
}

func (f *fakeFetcher) CheckHealth(ctx context.Context, baseURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthy
}

// noopLedger discards everything; used where tests don't care about the
// Event Ledger's writes.
type noopLedger struct{}

func (noopLedger) LogTelemetry(ctx context.Context, t RobotTelemetry)        {}
func (noopLedger) LogLockOutcome(ctx context.Context, o LockOutcome)         {}
func (noopLedger) LogCommand(ctx context.Context, c protocol.RobotCommand) {}
