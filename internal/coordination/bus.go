package coordination

import (
	"sync"

	"github.com/robot-ai-webapp/coord-core/internal/protocol"
)

// busBufferSize is the bound on each subscriber's channel. A subscriber that
// cannot keep up is dropped rather than allowed to stall the publisher —
// spec §5: "bounded per-subscriber buffering... when a subscriber lags
// beyond the buffer, it is dropped (a new subscribe is required)."
const busBufferSize = 32

// Subscription is a live Command Bus subscriber. Callers read from C until
// it is closed (on Unsubscribe or on a drop-for-lag).
type Subscription struct {
	id uint64
	C  <-chan protocol.RobotCommand
	ch chan protocol.RobotCommand
}

// CommandBus is the single-publisher / multi-subscriber broadcast of
// RobotCommand values (spec §3, §9). Late subscribers receive nothing of
// what was published before they subscribed — there is no replay.
//
// Grounded on the teacher's internal/server/hub.go: Hub's register/
// unregister/broadcast channel triad and Client.Send's bounded,
// drop-on-full delivery are reused here in shape, generalized from
// per-client WebSocket frames to typed RobotCommand values so both the
// Relay's downstream robot socket and any number of observers (the Event
// Ledger, tests) can subscribe without the bus knowing about WebSockets at
// all.
type CommandBus struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]chan protocol.RobotCommand
}

// NewCommandBus constructs an empty bus.
func NewCommandBus() *CommandBus {
	return &CommandBus{subs: make(map[uint64]chan protocol.RobotCommand)}
}

// Subscribe registers a new subscriber. The caller holds no back-reference
// to the bus beyond this Subscription (per §9's "subscribers are plain
// consumers" note) and must call Unsubscribe when done.
func (b *CommandBus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan protocol.RobotCommand, busBufferSize)
	b.subs[id] = ch
	return &Subscription{id: id, C: ch, ch: ch}
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *CommandBus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[sub.id]; ok {
		delete(b.subs, sub.id)
		close(ch)
	}
}

// Publish fans cmd out to every current subscriber. A subscriber whose
// buffer is full is dropped immediately (select+default, never blocks the
// publisher) rather than allowed to apply backpressure to the Scheduler or
// Relay that published it.
func (b *CommandBus) Publish(cmd protocol.RobotCommand) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.subs {
		select {
		case ch <- cmd:
		default:
			delete(b.subs, id)
			close(ch)
		}
	}
}
