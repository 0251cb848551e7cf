package announce

import (
	"context"

	"github.com/roomcast/roomcast-core/internal/directory"
	"github.com/roomcast/roomcast-core/internal/host"
)

// Aggregator computes room occupancy from sensors and tracked people.
type Aggregator struct {
	registry *directory.Registry
	resolver *Resolver
	states   host.StateReader
}

// NewAggregator creates an occupancy aggregator.
func NewAggregator(registry *directory.Registry, resolver *Resolver, states host.StateReader) *Aggregator {
	return &Aggregator{registry: registry, resolver: resolver, states: states}
}

// OccupiedRooms returns the rooms currently occupied, in configuration
// order.
//
// With usePresence set, rooms with at least one active occupancy sensor
// count. With useTracking set, every tracked person's resolved room
// counts (verified against sensors when usePresence is also set). Both
// flags off yields an empty set; the broadcast fallback is the target
// resolver's call.
func (a *Aggregator) OccupiedRooms(ctx context.Context, useTracking, usePresence bool) []directory.Room {
	occupied := make(map[string]struct{})

	rooms, err := a.registry.ListRooms(ctx)
	if err != nil {
		return nil
	}

	if usePresence {
		for _, room := range rooms {
			for _, sensor := range room.OccupancySensors {
				if s, ok := a.states.GetState(sensor); ok && s.Value == "on" {
					occupied[room.ID] = struct{}{}
					break
				}
			}
		}
	}

	if useTracking {
		people, err := a.registry.ListPeople(ctx)
		if err == nil {
			for _, person := range people {
				if room, ok := a.resolver.ResolveRoom(person, usePresence); ok {
					occupied[room.ID] = struct{}{}
				}
			}
		}
	}

	var result []directory.Room
	for _, room := range rooms {
		if _, ok := occupied[room.ID]; ok {
			result = append(result, room)
		}
	}
	return result
}

// PeopleInRoom returns the people currently resolved to the room, in
// configuration order. Used to size groups during composition.
func (a *Aggregator) PeopleInRoom(ctx context.Context, roomID string, verify bool) []directory.Person {
	people, err := a.registry.ListPeople(ctx)
	if err != nil {
		return nil
	}

	var present []directory.Person
	for _, person := range people {
		if room, ok := a.resolver.ResolveRoom(person, verify); ok && room.ID == roomID {
			present = append(present, person)
		}
	}
	return present
}
