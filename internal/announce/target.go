package announce

import (
	"context"
	"fmt"
	"strings"

	"github.com/roomcast/roomcast-core/internal/directory"
	"github.com/roomcast/roomcast-core/internal/host"
)

// TargetResolver turns an announcement request into the list of rooms
// to announce to.
type TargetResolver struct {
	registry   *directory.Registry
	resolver   *Resolver
	aggregator *Aggregator
	states     host.StateReader
	logger     Logger
}

// NewTargetResolver creates a target resolver. Pass nil for logger to
// disable logging.
func NewTargetResolver(registry *directory.Registry, resolver *Resolver, aggregator *Aggregator, states host.StateReader, logger Logger) *TargetResolver {
	if logger == nil {
		logger = noopLogger{}
	}
	return &TargetResolver{
		registry:   registry,
		resolver:   resolver,
		aggregator: aggregator,
		states:     states,
		logger:     logger,
	}
}

// Resolve produces the target rooms for a request.
//
// Priority: explicit area, explicit people, occupancy, broadcast. An
// unknown area or person fails the whole request. An empty return with
// a nil error means there is nobody to tell; the dispatcher picks the
// reason.
func (t *TargetResolver) Resolve(ctx context.Context, req Request, useTracking, usePresence bool) ([]ResolvedTarget, error) {
	people, err := t.resolvePeople(req.TargetPerson)
	if err != nil {
		return nil, err
	}

	if area := strings.TrimSpace(req.TargetArea); area != "" {
		room, ok := t.registry.MatchRoom(area)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownArea, area)
		}
		// Targeted people ride along so personalisation still
		// addresses them in the named room.
		return []ResolvedTarget{{Room: *room, People: people}}, nil
	}

	if len(people) > 0 {
		return t.resolveForPeople(ctx, people, useTracking, usePresence)
	}

	if useTracking || usePresence {
		occupied := t.aggregator.OccupiedRooms(ctx, useTracking, usePresence)
		targets := make([]ResolvedTarget, 0, len(occupied))
		for _, room := range occupied {
			targets = append(targets, ResolvedTarget{Room: room})
		}
		return targets, nil
	}

	// Tracking and presence both off: announce everywhere.
	rooms := t.registry.RoomsWithSpeaker()
	targets := make([]ResolvedTarget, 0, len(rooms))
	for _, room := range rooms {
		targets = append(targets, ResolvedTarget{Room: room})
	}
	return targets, nil
}

// resolvePeople parses a comma-separated person list. Every entry must
// match a configured person.
func (t *TargetResolver) resolvePeople(list string) ([]directory.Person, error) {
	var people []directory.Person
	for _, ref := range strings.Split(list, ",") {
		ref = strings.TrimSpace(ref)
		if ref == "" {
			continue
		}
		person, ok := t.registry.MatchPerson(ref)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPerson, ref)
		}
		people = append(people, *person)
	}
	return people, nil
}

// resolveForPeople maps targeted people to their current rooms.
// People sharing a room merge into one target. When nobody's room is
// known but someone is home, the set falls back to the occupied rooms
// with the home people carried along.
func (t *TargetResolver) resolveForPeople(ctx context.Context, people []directory.Person, useTracking, usePresence bool) ([]ResolvedTarget, error) {
	byRoom := make(map[string][]directory.Person)
	var home []directory.Person

	for _, person := range people {
		if s, ok := t.states.GetState(person.PresenceEntity); ok && s.Value == "home" {
			home = append(home, person)
		}
		if !useTracking {
			continue
		}
		if room, ok := t.resolver.ResolveRoom(person, usePresence); ok {
			byRoom[room.ID] = append(byRoom[room.ID], person)
		}
	}

	if len(byRoom) > 0 {
		rooms, err := t.registry.ListRooms(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing rooms: %w", err)
		}
		var targets []ResolvedTarget
		for _, room := range rooms {
			if occupants, ok := byRoom[room.ID]; ok {
				targets = append(targets, ResolvedTarget{Room: room, People: occupants})
			}
		}
		return targets, nil
	}

	if len(home) == 0 {
		t.logger.Debug("no targeted person is home")
		return nil, nil
	}

	// Home but untrackable: announce to every occupied room, still
	// addressed to the people we were asked to reach.
	occupied := t.aggregator.OccupiedRooms(ctx, useTracking, usePresence)
	if len(occupied) == 0 {
		// No occupancy signal at all (tracking and presence may both
		// be off). Someone we were asked to reach is home, so reach
		// every room with a speaker rather than giving up.
		occupied = t.registry.RoomsWithSpeaker()
	}
	var targets []ResolvedTarget
	for _, room := range occupied {
		targets = append(targets, ResolvedTarget{Room: room, People: home})
	}
	return targets, nil
}
