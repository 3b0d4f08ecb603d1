// =============================================================================
// Package protocol defines RobotCommand, the wire message published on the
// Command Bus and carried over both WebSocket channels.
//
// The teacher's internal/protocol/messages.go models its Message envelope
// with an open Payload map[string]any and a string MessageType. RobotCommand
// here narrows that to the closed, four-variant set the spec names
// (NAVIGATE, CANCEL, SET_MODE, DRIVE_COMMAND) with concrete typed fields, so
// callers can exhaustively switch on Kind without type-asserting into a map.
// =============================================================================
package protocol

import "encoding/json"

// Kind identifies which RobotCommand variant a message carries.
type Kind string

const (
	KindNavigate     Kind = "NAVIGATE"
	KindCancel       Kind = "CANCEL"
	KindSetMode      Kind = "SET_MODE"
	KindDriveCommand Kind = "DRIVE_COMMAND"
)

// Allowed reports whether k is one of the four variants the spec defines.
// Anything else (including the zero value) must be silently dropped by the
// Relay, per §4.7 step 2.
func (k Kind) Allowed() bool {
	switch k {
	case KindNavigate, KindCancel, KindSetMode, KindDriveCommand:
		return true
	default:
		return false
	}
}

// RobotCommand is the tagged union published on the Command Bus.
//
// Only the fields relevant to Kind are populated; the rest are zero values.
// JSON field names are chosen to match the spec's §3/§4.7 command shapes
// (start/destination for NAVIGATE, mode for SET_MODE, linear_velocity/
// angular_velocity for DRIVE_COMMAND).
type RobotCommand struct {
	Kind Kind `json:"type"`

	// NAVIGATE
	Start       string `json:"start,omitempty"`
	Destination string `json:"destination,omitempty"`

	// SET_MODE
	Mode string `json:"mode,omitempty"`

	// DRIVE_COMMAND
	LinearVelocity  float64 `json:"linear_velocity,omitempty"`
	AngularVelocity float64 `json:"angular_velocity,omitempty"`
}

// Navigate builds a NAVIGATE command.
func Navigate(start, destination string) RobotCommand {
	return RobotCommand{Kind: KindNavigate, Start: start, Destination: destination}
}

// Cancel builds a CANCEL command.
func Cancel() RobotCommand {
	return RobotCommand{Kind: KindCancel}
}

// SetMode builds a SET_MODE command.
func SetMode(mode string) RobotCommand {
	return RobotCommand{Kind: KindSetMode, Mode: mode}
}

// DriveCommand builds a DRIVE_COMMAND command.
func DriveCommand(linear, angular float64) RobotCommand {
	return RobotCommand{Kind: KindDriveCommand, LinearVelocity: linear, AngularVelocity: angular}
}

// Encode serializes a RobotCommand as a JSON text frame, the only wire
// format the spec allows on either WebSocket channel.
func Encode(cmd RobotCommand) ([]byte, error) {
	return json.Marshal(cmd)
}

// Decode parses a JSON text frame into a RobotCommand. Callers on the Relay
// path must treat any error here as "silently drop the frame" (§4.7 step 1),
// not as a reason to close the socket.
func Decode(data []byte) (RobotCommand, error) {
	var cmd RobotCommand
	if err := json.Unmarshal(data, &cmd); err != nil {
		return RobotCommand{}, err
	}
	return cmd, nil
}
