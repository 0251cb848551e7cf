package announce

import "github.com/roomcast/roomcast-core/internal/gate"

// Evaluator answers whether a room or person gate blocks delivery.
// Gates default to enabled; only an explicit disable blocks.
type Evaluator struct {
	store gate.Store
}

// NewEvaluator creates a gate evaluator over the given store.
func NewEvaluator(store gate.Store) *Evaluator {
	return &Evaluator{store: store}
}

// RoomBlocked reports whether announcements into the room are disabled.
func (e *Evaluator) RoomBlocked(roomID string) bool {
	return !e.store.Enabled(gate.KindRoom, roomID)
}

// PersonBlocked reports whether announcements to the person are muted.
func (e *Evaluator) PersonBlocked(personID string) bool {
	return !e.store.Enabled(gate.KindPerson, personID)
}
