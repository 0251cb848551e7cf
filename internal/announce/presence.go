package announce

import (
	"strings"

	"github.com/roomcast/roomcast-core/internal/directory"
	"github.com/roomcast/roomcast-core/internal/host"
)

// reservedStates are tracker values that are never room names. Zone
// trackers report these when the person is away or the tracker is
// stale.
var reservedStates = map[string]struct{}{
	"home":        {},
	"not_home":    {},
	"unknown":     {},
	"unavailable": {},
	"none":        {},
}

// Resolver locates a person's current room from their presence and
// tracker entities.
type Resolver struct {
	registry *directory.Registry
	states   host.StateReader
	logger   Logger
}

// NewResolver creates a presence resolver. Pass nil for logger to
// disable logging.
func NewResolver(registry *directory.Registry, states host.StateReader, logger Logger) *Resolver {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Resolver{registry: registry, states: states, logger: logger}
}

// ResolveRoom returns the room the person currently occupies, or false
// when it cannot be determined.
//
// The person must be home; away people never resolve. The tracker is
// then read in interpretation order: a raw state value naming a room
// wins, then an "area" attribute, then a "room" attribute. With verify
// set, a resolved room must additionally pass VerifyPresence.
func (r *Resolver) ResolveRoom(person directory.Person, verify bool) (*directory.Room, bool) {
	presence, ok := r.states.GetState(person.PresenceEntity)
	if !ok || presence.Value != "home" {
		r.logger.Debug("person not home", "person", person.Name, "state", presence.Value)
		return nil, false
	}

	if person.TrackerEntity == "" {
		return nil, false
	}
	tracker, ok := r.states.GetState(person.TrackerEntity)
	if !ok {
		r.logger.Debug("tracker entity unseen", "person", person.Name, "tracker", person.TrackerEntity)
		return nil, false
	}

	room, ok := r.roomFromTracker(tracker)
	if !ok {
		r.logger.Debug("tracker resolves no room", "person", person.Name, "tracker", person.TrackerEntity)
		return nil, false
	}

	if verify && !r.VerifyPresence(*room) {
		r.logger.Debug("presence verification failed",
			"person", person.Name, "room", room.Name)
		return nil, false
	}
	return room, true
}

// roomFromTracker interprets a tracker state against the configured
// rooms.
func (r *Resolver) roomFromTracker(tracker host.State) (*directory.Room, bool) {
	value := strings.ToLower(strings.TrimSpace(tracker.Value))
	if _, reserved := reservedStates[value]; !reserved && value != "" {
		if room, ok := r.registry.MatchRoom(value); ok {
			return room, true
		}
	}
	if area := tracker.Attribute("area"); area != "" {
		if room, ok := r.registry.MatchRoom(area); ok {
			return room, true
		}
	}
	if name := tracker.Attribute("room"); name != "" {
		if room, ok := r.registry.MatchRoom(name); ok {
			return room, true
		}
	}
	return nil, false
}

// VerifyPresence reports whether the room's occupancy sensors confirm
// someone is there. Rooms with no sensors cannot disconfirm and count
// as occupied; otherwise at least one sensor must read "on".
func (r *Resolver) VerifyPresence(room directory.Room) bool {
	if len(room.OccupancySensors) == 0 {
		return true
	}
	for _, sensor := range room.OccupancySensors {
		if s, ok := r.states.GetState(sensor); ok && s.Value == "on" {
			return true
		}
	}
	return false
}
