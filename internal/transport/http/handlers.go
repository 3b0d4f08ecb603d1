package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/robot-ai-webapp/coord-core/internal/coordination"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

type statusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// --- Robot ingest ---------------------------------------------------------

type telemetryBody struct {
	SystemHealth    string  `json:"systemHealth"`
	BatteryLevel    float64 `json:"batteryLevel"`
	DriveMode       string  `json:"driveMode"`
	CargoStatus     string  `json:"cargoStatus"`
	CurrentPosition string  `json:"currentPosition"`
	LastNode        string  `json:"lastNode"`
	TargetNode      string  `json:"targetNode"`
}

// handleTableState implements POST /table/state (§6, §4.1). Malformed
// bodies and successful ingests both answer HTTP 200 with {status,message}
// per the robot-control propagation policy (§7) — only the API key
// mismatch, handled in apiKeyAuth, uses a standard status code.
func (s *Server) handleTableState(w http.ResponseWriter, r *http.Request) {
	var body telemetryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, statusMessage{Status: "error", Message: "malformed body"})
		return
	}
	s.coord.UpdateTelemetry(r.Context(), coordination.RobotTelemetry{
		SystemHealth:    coordination.SystemHealth(body.SystemHealth),
		BatteryLevel:    body.BatteryLevel,
		DriveMode:       coordination.DriveMode(body.DriveMode),
		CargoStatus:     coordination.CargoStatus(body.CargoStatus),
		CurrentPosition: body.CurrentPosition,
		LastNode:        body.LastNode,
		TargetNode:      body.TargetNode,
	})
	writeJSON(w, statusMessage{Status: "ok"})
}

type eventBody struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) handleTableEvent(w http.ResponseWriter, r *http.Request) {
	var body eventBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, statusMessage{Status: "error", Message: "malformed body"})
		return
	}
	s.coord.RecordEvent(r.Context(), coordination.RobotEvent{Event: body.Event, Timestamp: body.Timestamp})
	writeJSON(w, statusMessage{Status: "ok"})
}

type registerBody struct {
	RobotURL string `json:"robotUrl"`
}

func (s *Server) handleTableRegister(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.RobotURL == "" {
		writeJSON(w, statusMessage{Status: "error", Message: "malformed body"})
		return
	}
	s.coord.RegisterRobot(body.RobotURL)
	writeJSON(w, statusMessage{Status: "ok"})
}

// --- Status / nodes --------------------------------------------------------

type lastRouteView struct {
	StartNode string `json:"start_node"`
	EndNode   string `json:"end_node"`
}

type statusView struct {
	SystemHealth         string         `json:"systemHealth"`
	BatteryLevel         float64        `json:"batteryLevel"`
	DriveMode            string         `json:"driveMode"`
	CargoStatus          string         `json:"cargoStatus"`
	LastRoute            *lastRouteView `json:"lastRoute,omitempty"`
	Position             string         `json:"position"`
	ManualLockHolderName *string        `json:"manualLockHolderName,omitempty"`
	RobotConnected       bool           `json:"robotConnected"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	view := s.coord.Status()
	out := statusView{
		SystemHealth:   string(view.SystemHealth),
		BatteryLevel:   view.BatteryLevel,
		DriveMode:      string(view.DriveMode),
		CargoStatus:    string(view.CargoStatus),
		Position:       view.Position,
		RobotConnected: view.RobotConnected,
	}
	if view.HasLastRoute {
		out.LastRoute = &lastRouteView{StartNode: view.LastNode, EndNode: view.TargetNode}
	}
	if view.HasLockHolder {
		name := view.ManualLockHolderName
		out.ManualLockHolderName = &name
	}
	writeJSON(w, out)
}

type nodesView struct {
	Nodes []string `json:"nodes"`
}

// handleNodes implements GET /nodes: the one user-control endpoint the spec
// gives a real non-200 status to (§6: "503 with {nodes: []} if unknown").
func (s *Server) handleNodes(w http.ResponseWriter, r *http.Request) {
	nodes := s.coord.Nodes(r.Context())
	if len(nodes) == 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(nodesView{Nodes: []string{}})
		return
	}
	writeJSON(w, nodesView{Nodes: nodes})
}

func (s *Server) handleRobotCheck(w http.ResponseWriter, r *http.Request) {
	connected := s.coord.CheckRobot(r.Context())
	writeJSON(w, struct {
		Connected bool `json:"connected"`
	}{Connected: connected})
}

// --- Routes -----------------------------------------------------------------

type routeView struct {
	ID          string    `json:"id"`
	Start       string    `json:"start"`
	Destination string    `json:"destination"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toRouteView(r coordination.QueuedRoute) routeView {
	return routeView{
		ID:          string(r.ID),
		Start:       r.Start,
		Destination: r.Destination,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

type routesView struct {
	Pending []routeView `json:"pending"`
	Active  *routeView  `json:"active,omitempty"`
}

type enqueueBody struct {
	Start       string `json:"start"`
	Destination string `json:"destination"`
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	who := authResultFrom(r)

	switch r.Method {
	case http.MethodGet:
		pending, active := s.coord.ListRoutes()
		out := routesView{Pending: make([]routeView, 0, len(pending))}
		for _, p := range pending {
			out.Pending = append(out.Pending, toRouteView(p))
		}
		if active != nil {
			v := toRouteView(*active)
			out.Active = &v
		}
		writeJSON(w, out)

	case http.MethodPost:
		var body enqueueBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, statusMessage{Status: "error", Message: "malformed body"})
			return
		}
		route, err := s.coord.EnqueueRoute(who.Role, body.Start, body.Destination, who.UserID)
		if err != nil {
			writeJSON(w, statusMessage{Status: "error", Message: err.Error()})
			return
		}
		writeJSON(w, toRouteView(route))

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleRouteByID implements DELETE /routes/:id (Admin only).
func (s *Server) handleRouteByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	who := authResultFrom(r)
	id := strings.TrimPrefix(r.URL.Path, "/routes/")
	if id == "" {
		writeJSON(w, statusMessage{Status: "error", Message: "missing route id"})
		return
	}
	if err := s.coord.RemoveRoute(who.Role, coordination.RouteID(id)); err != nil {
		writeJSON(w, statusMessage{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, statusMessage{Status: "ok"})
}

func (s *Server) handleRoutesOptimize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	who := authResultFrom(r)
	if err := s.coord.OptimizeRoutes(who.Role); err != nil {
		writeJSON(w, statusMessage{Status: "error", Message: err.Error()})
		return
	}
	writeJSON(w, statusMessage{Status: "ok"})
}

type selectBody struct {
	Destination string `json:"destination"`
}

func (s *Server) handleRoutesSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	who := authResultFrom(r)
	var body selectBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, statusMessage{Status: "error", Message: "malformed body"})
		return
	}
	ok, message := s.coord.SelectRoute(who.Role, who.UserID, body.Destination)
	status := "ok"
	if !ok {
		status = "error"
	}
	writeJSON(w, statusMessage{Status: status, Message: message})
}

// --- Drive lock --------------------------------------------------------------

type lockBody struct {
	Name string `json:"name"`
}

func (s *Server) handleDriveLock(w http.ResponseWriter, r *http.Request) {
	who := authResultFrom(r)

	switch r.Method {
	case http.MethodPost:
		var body lockBody
		_ = json.NewDecoder(r.Body).Decode(&body)
		outcome := s.coord.AcquireLock(who.Role, who.UserID, body.Name)
		writeJSON(w, lockOutcomeView(outcome))

	case http.MethodDelete:
		outcome := s.coord.ReleaseLock(who.Role, who.UserID)
		writeJSON(w, lockOutcomeView(outcome))

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

type lockOutcomeBody struct {
	Status  string `json:"status"`
	Kind    string `json:"kind"`
	HeldBy  string `json:"heldBy,omitempty"`
	Message string `json:"message,omitempty"`
}

func lockOutcomeView(outcome coordination.LockOutcome) lockOutcomeBody {
	status := "ok"
	if outcome.Kind == coordination.LockRefused || outcome.Kind == coordination.LockNotHolder {
		status = "error"
	}
	return lockOutcomeBody{
		Status:  status,
		Kind:    string(outcome.Kind),
		HeldBy:  outcome.HeldBy,
		Message: outcome.Reason,
	}
}
