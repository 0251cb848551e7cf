package announce

import (
	"time"

	"github.com/roomcast/roomcast-core/internal/directory"
)

// Request is one announcement invocation.
//
// TargetPerson takes a comma-separated list of person references
// (display name or entity suffix). TargetArea takes a room id or
// display name. Pointer fields are per-request overrides; nil means
// "use the configured default".
type Request struct {
	Message              string `json:"message"`
	TargetPerson         string `json:"target_person,omitempty"`
	TargetArea           string `json:"target_area,omitempty"`
	Enhance              *bool  `json:"enhance,omitempty"`
	Translate            *bool  `json:"translate,omitempty"`
	PreAnnounce          *bool  `json:"pre_announce,omitempty"`
	RoomTracking         *bool  `json:"room_tracking,omitempty"`
	PresenceVerification *bool  `json:"presence_verification,omitempty"`
}

// ResolvedTarget is a room to announce to plus the explicitly targeted
// people relevant to it. An empty People slice means "whoever is here".
type ResolvedTarget struct {
	Room   directory.Room
	People []directory.Person
}

// Status is the per-room outcome of a dispatch.
type Status string

const (
	// StatusPending means the room has not been attempted yet.
	StatusPending Status = "pending"

	// StatusSkipped means the room has no speaker configured.
	StatusSkipped Status = "skipped"

	// StatusBlocked means a room or person gate stopped delivery.
	StatusBlocked Status = "blocked"

	// StatusDelivered means the speech call was accepted by the host.
	StatusDelivered Status = "delivered"

	// StatusFailed means the speech call failed.
	StatusFailed Status = "failed"
)

// Block and skip reason codes carried on results and blocked events.
const (
	ReasonNoSpeaker      = "no_speaker"
	ReasonRoomDisabled   = "room_disabled"
	ReasonPersonDisabled = "person_disabled"
	ReasonTTSFailed      = "tts_failed"
)

// RoomResult records the outcome of one room's delivery attempt.
type RoomResult struct {
	RoomID     string  `json:"room_id"`
	RoomName   string  `json:"room_name"`
	Status     Status  `json:"status"`
	Reason     string  `json:"reason,omitempty"`
	Message    string  `json:"message,omitempty"`
	People     string  `json:"people,omitempty"`
	DurationMS float64 `json:"duration_ms"`
}

// Result is the overall outcome of one announcement request.
type Result struct {
	ID        string       `json:"id"`
	Rooms     []RoomResult `json:"rooms"`
	Delivered int          `json:"delivered"`
	StartedAt time.Time    `json:"started_at"`
	Duration  string       `json:"duration"`
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
