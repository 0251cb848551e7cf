package host

import (
	"context"
	"time"
)

// State is a snapshot of a host entity.
//
// Value carries the entity's primary state string ("home", "on",
// "Kitchen", ...). Attributes carry the entity's attribute map; room
// trackers commonly publish "area" or "room" attributes there.
type State struct {
	EntityID   string         `json:"entity_id"`
	Value      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Attribute returns a string attribute, or "" when absent or not a string.
func (s State) Attribute(key string) string {
	if s.Attributes == nil {
		return ""
	}
	if v, ok := s.Attributes[key].(string); ok {
		return v
	}
	return ""
}

// StateReader provides read access to host entity states.
type StateReader interface {
	// GetState returns the latest known state for an entity.
	// The second return is false when the entity has never been seen.
	GetState(entityID string) (State, bool)
}

// CapabilityCaller invokes host platform capabilities.
type CapabilityCaller interface {
	// Call invokes a capability such as tts.speak or conversation.process.
	//
	// When blocking is true the call waits for the host's response and
	// returns its result map; otherwise it returns immediately after
	// the request is accepted. The context bounds the wait.
	Call(ctx context.Context, domain, action string, payload map[string]any, blocking bool) (map[string]any, error)
}

// EventEmitter publishes announcement lifecycle events to the host.
type EventEmitter interface {
	// Emit publishes a named event with a payload. Emission is
	// fire-and-forget; failures are logged, never returned.
	Emit(name string, payload map[string]any)
}

// Logger defines the logging interface used by the Bridge.
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
