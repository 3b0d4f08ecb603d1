// Package http implements the REST surface of spec §6 over a plain
// net/http.ServeMux, matching the teacher's routing choice in
// cmd/gateway/main.go (no new router framework is introduced). Robot
// ingest and user-control handlers share one mux; auth is enforced per
// route by the apiKey/bearer middleware in auth.go, not by the mux itself.
package http

import (
	"net/http"

	"github.com/robot-ai-webapp/coord-core/internal/auth"
	"github.com/robot-ai-webapp/coord-core/internal/coordination"
	"go.uber.org/zap"
)

// Server groups the REST handlers and their shared dependencies.
type Server struct {
	coord  *coordination.Coordinator
	auth   auth.Collaborator
	apiKey string
	logger *zap.Logger
}

// New constructs a Server.
func New(coord *coordination.Coordinator, collaborator auth.Collaborator, apiKey string, logger *zap.Logger) *Server {
	return &Server{coord: coord, auth: collaborator, apiKey: apiKey, logger: logger}
}

// Mux builds the route table.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	// Robot ingest: X-Api-Key.
	mux.HandleFunc("/table/state", s.apiKeyAuth(s.handleTableState))
	mux.HandleFunc("/table/event", s.apiKeyAuth(s.handleTableEvent))
	mux.HandleFunc("/table/register", s.handleTableRegister)

	// Public status.
	mux.HandleFunc("/status", s.handleStatus)

	// User control: JWT Bearer.
	mux.HandleFunc("/nodes", s.bearerAuth(s.handleNodes))
	mux.HandleFunc("/routes", s.bearerAuth(s.handleRoutes))
	mux.HandleFunc("/routes/", s.bearerAuth(s.handleRouteByID))
	mux.HandleFunc("/routes/optimize", s.bearerAuth(s.handleRoutesOptimize))
	mux.HandleFunc("/routes/select", s.bearerAuth(s.handleRoutesSelect))
	mux.HandleFunc("/drive/lock", s.bearerAuth(s.handleDriveLock))
	mux.HandleFunc("/robot/check", s.bearerAuth(s.handleRobotCheck))

	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","service":"coord-core"}`))
}
