package directory

import "strings"

// MatchRoom resolves a free-form room reference against the cached
// rooms. Matching is case-insensitive against the room id and display
// name.
func (r *Registry) MatchRoom(ref string) (*Room, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, false
	}

	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	for _, rm := range r.rooms {
		if strings.EqualFold(ref, rm.ID) || strings.EqualFold(ref, rm.Name) {
			return rm.DeepCopy(), true
		}
	}
	return nil, false
}

// MatchPerson resolves a free-form person reference against the cached
// people. Each candidate is tried in order, first match wins:
//
//  1. display name
//  2. identifier or presence-entity suffix (the part after the last dot)
//  3. that suffix with underscores as spaces
//
// All comparisons are case-insensitive.
func (r *Registry) MatchPerson(ref string) (*Person, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, false
	}

	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	for _, p := range r.people {
		if strings.EqualFold(ref, p.Name) {
			return p.DeepCopy(), true
		}
	}
	for _, p := range r.people {
		// Generated ids carry no useful suffix, so the presence entity
		// ("person.alice_smith") doubles as a match source.
		for _, suffix := range []string{idSuffix(p.ID), idSuffix(p.PresenceEntity)} {
			if suffix == "" {
				continue
			}
			if strings.EqualFold(ref, suffix) {
				return p.DeepCopy(), true
			}
			if strings.EqualFold(ref, strings.ReplaceAll(suffix, "_", " ")) {
				return p.DeepCopy(), true
			}
		}
	}
	return nil, false
}

// RoomsWithSpeaker returns all rooms that have a media player
// configured, in configuration order.
func (r *Registry) RoomsWithSpeaker() []Room {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	var rooms []Room
	for _, rm := range r.rooms {
		if rm.HasSpeaker() {
			rooms = append(rooms, *rm.DeepCopy())
		}
	}
	sortRooms(rooms)
	return rooms
}

// PersonByPresenceEntity finds the person whose presence entity matches
// the given entity id. Used to react to host state updates.
func (r *Registry) PersonByPresenceEntity(entity string) (*Person, bool) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	for _, p := range r.people {
		if p.PresenceEntity == entity {
			return p.DeepCopy(), true
		}
	}
	return nil, false
}

// idSuffix returns the portion of an identifier after the last dot, or
// the whole identifier when it has no dot. "person.alice_smith"
// becomes "alice_smith".
func idSuffix(id string) string {
	if i := strings.LastIndex(id, "."); i >= 0 {
		return id[i+1:]
	}
	return id
}
