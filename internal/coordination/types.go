package coordination

import "time"

// Role is a tagged sum of the three user roles the Admission Policy
// discriminates on.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// SystemHealth, DriveMode, and CargoStatus are the closed enums of
// RobotTelemetry (spec §3). The zero value of each is the empty string, which
// matches none of the constants below, so a missing telemetry update never
// reads as a false OK/IDLE/EMPTY.
type SystemHealth string

const (
	HealthOK      SystemHealth = "OK"
	HealthWarning SystemHealth = "WARNING"
	HealthError   SystemHealth = "ERROR"
	HealthOffline SystemHealth = "OFFLINE"
	HealthUnknown SystemHealth = "UNKNOWN"
)

type DriveMode string

const (
	DriveManual  DriveMode = "MANUAL"
	DriveAuto    DriveMode = "AUTO"
	DriveIdle    DriveMode = "IDLE"
	DriveUnknown DriveMode = "UNKNOWN"
)

type CargoStatus string

const (
	CargoLoading            CargoStatus = "LOADING"
	CargoInTransit          CargoStatus = "IN_TRANSIT"
	CargoDeliveryConfirmed  CargoStatus = "DELIVERY_CONFIRMED"
	CargoEmpty              CargoStatus = "EMPTY"
	CargoUnknown            CargoStatus = "UNKNOWN"
)

// RobotTelemetry is replaced atomically on every updateTelemetry call
// (spec §3). LastNode/TargetNode are optional: empty string means absent.
type RobotTelemetry struct {
	SystemHealth    SystemHealth
	BatteryLevel    float64
	DriveMode       DriveMode
	CargoStatus     CargoStatus
	CurrentPosition string
	LastNode        string
	TargetNode      string
}

// RobotEvent is the body of POST /table/event (SPEC_FULL §3). It has no
// state-transition effect of its own beyond being written to the process
// log (not to the Event Ledger) — the spec names no transition it triggers.
type RobotEvent struct {
	Event     string
	Timestamp time.Time
}

// ManualLock is the single process-wide manual-drive lock (spec §3).
type ManualLock struct {
	HolderID   string
	HolderName string
	HolderRole Role
	AcquiredAt time.Time
	ExpiresAt  time.Time
}

// Active reports whether the lock is live as of now, per the "expiresAt >
// now" rule in §4.2 — an expired lock must be invisible everywhere.
func (l ManualLock) Active(now time.Time) bool {
	return l.ExpiresAt.After(now)
}

// RouteID is a fresh opaque identifier assigned on enqueue.
type RouteID string

// QueuedRoute is one entry in the Route Queue (spec §3).
type QueuedRoute struct {
	ID          RouteID
	Start       string
	Destination string
	CreatedBy   string
	CreatedAt   time.Time
}

// AuthResult is the concrete success shape of the Auth Collaborator's
// verify(token) contract (spec §6).
type AuthResult struct {
	UserID string
	Name   string
	Role   Role
}
