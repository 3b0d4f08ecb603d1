package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/robot-ai-webapp/coord-core/internal/coordination"
	"github.com/robot-ai-webapp/coord-core/internal/protocol"
	"go.uber.org/zap"
)

// Downlink serves /ws/robot/control: the robot connects here and receives
// every RobotCommand the Coordinator publishes to the Command Bus, as a JSON
// text frame. Unauthenticated per spec §6 — the robot side of the contract
// carries no credential.
type Downlink struct {
	coord  *coordination.Coordinator
	logger *zap.Logger
}

// NewDownlink constructs a Downlink.
func NewDownlink(coord *coordination.Coordinator, logger *zap.Logger) *Downlink {
	return &Downlink{coord: coord, logger: logger}
}

// ServeHTTP implements http.Handler.
func (d *Downlink) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		d.logger.Error("robot downlink upgrade failed", zap.Error(err))
		return
	}

	sub := d.coord.Subscribe()
	d.logger.Info("robot control client connected")

	go d.readPump(conn, sub)
	go d.writePump(conn, sub)
}

// readPump only exists to detect disconnect/close frames from the robot
// side and drive cleanup; the robot never sends commands upstream here.
func (d *Downlink) readPump(conn *websocket.Conn, sub *coordination.Subscription) {
	defer func() {
		d.coord.Unsubscribe(sub)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (d *Downlink) writePump(conn *websocket.Conn, sub *coordination.Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case cmd, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			data, err := protocol.Encode(cmd)
			if err != nil {
				d.logger.Error("command encode failed", zap.Error(err))
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
