// Package ws implements the two WebSocket endpoints spec §6/§4.7 name: the
// manual-drive uplink (operator browser → Coordinator) and the robot
// downlink (Coordinator → robot). Both are adapted from the teacher's
// internal/server/websocket.go readPump/writePump shape and Ping/Pong
// constants; the Hub's many-to-many broadcast is not needed here since each
// endpoint has exactly one logical direction of traffic, so the per-client
// Hub is replaced by a direct upgrade-then-pump per connection.
package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/robot-ai-webapp/coord-core/internal/auth"
	"github.com/robot-ai-webapp/coord-core/internal/coorderr"
	"github.com/robot-ai-webapp/coord-core/internal/coordination"
	"github.com/robot-ai-webapp/coord-core/internal/protocol"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 65536
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Relay serves /ws/drive/manual?token=<jwt>: authenticates the connection
// once at upgrade time, then reads RobotCommand frames and routes each
// through Coordinator.ApplyManualCommand.
type Relay struct {
	auth   auth.Collaborator
	coord  *coordination.Coordinator
	logger *zap.Logger
}

// NewRelay constructs a Relay.
func NewRelay(a auth.Collaborator, coord *coordination.Coordinator, logger *zap.Logger) *Relay {
	return &Relay{auth: a, coord: coord, logger: logger}
}

// ServeHTTP implements http.Handler.
func (r *Relay) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	token := req.URL.Query().Get("token")
	result, err := r.auth.Verify(token)
	if err != nil {
		// Transport-level auth failure (spec §7): close with an
		// unauthorized status and no body, before ever upgrading.
		w.WriteHeader(coorderr.New(coorderr.Unauthorized, "invalid token").HTTPStatus())
		return
	}

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("manual drive upgrade failed", zap.Error(err))
		return
	}

	r.logger.Info("manual drive client connected",
		zap.String("user_id", result.UserID),
		zap.String("role", string(result.Role)),
	)

	go r.readPump(conn, result)
}

func (r *Relay) readPump(conn *websocket.Conn, who coordination.AuthResult) {
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.logger.Warn("manual drive read error", zap.String("user_id", who.UserID), zap.Error(err))
			}
			return
		}

		cmd, err := protocol.Decode(data)
		if err != nil {
			r.logger.Debug("manual drive decode error", zap.String("user_id", who.UserID), zap.Error(err))
			continue
		}

		if !r.coord.ApplyManualCommand(who.Role, who.UserID, cmd) {
			r.logger.Debug("manual command refused",
				zap.String("user_id", who.UserID),
				zap.String("kind", string(cmd.Kind)),
			)
		}
	}
}
