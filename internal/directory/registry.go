package directory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
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

// Registry provides people/room management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by cache-updating CRUD operations.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	people  map[string]*Person
	rooms   map[string]*Room
	group   *GroupSettings
	cacheMu sync.RWMutex
	logger  Logger
}

// NewRegistry creates a new directory registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		people: make(map[string]*Person),
		rooms:  make(map[string]*Room),
		group:  &GroupSettings{Addressee: "Everyone"},
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all records from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	people, err := r.repo.ListPeople(ctx)
	if err != nil {
		return fmt.Errorf("loading people: %w", err)
	}
	rooms, err := r.repo.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("loading rooms: %w", err)
	}
	group, err := r.repo.GetGroupSettings(ctx)
	if err != nil {
		return fmt.Errorf("loading group settings: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.people = make(map[string]*Person, len(people))
	for i := range people {
		p := people[i]
		r.people[p.ID] = p.DeepCopy()
	}
	r.rooms = make(map[string]*Room, len(rooms))
	for i := range rooms {
		rm := rooms[i]
		r.rooms[rm.ID] = rm.DeepCopy()
	}
	r.group = group

	r.logger.Info("directory cache refreshed",
		"people", len(people), "rooms", len(rooms))
	return nil
}

// =============================================================================
// People
// =============================================================================

// GetPerson retrieves a person by ID.
// The returned person is a deep copy; callers can safely modify it.
func (r *Registry) GetPerson(_ context.Context, id string) (*Person, error) {
	r.cacheMu.RLock()
	cached, ok := r.people[id]
	r.cacheMu.RUnlock()

	if ok {
		return cached.DeepCopy(), nil
	}
	return nil, ErrPersonNotFound
}

// ListPeople retrieves all people from the cache in configuration order.
func (r *Registry) ListPeople(_ context.Context) ([]Person, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	people := make([]Person, 0, len(r.people))
	for _, p := range r.people {
		people = append(people, *p.DeepCopy())
	}
	sortPeople(people)
	return people, nil
}

// CreatePerson validates, persists, and caches a new person.
func (r *Registry) CreatePerson(ctx context.Context, person *Person) error {
	if person.ID == "" {
		person.ID = uuid.NewString()
	}

	if err := ValidatePerson(person); err != nil {
		return err
	}

	if err := r.repo.CreatePerson(ctx, person); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.people[person.ID] = person.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("person created", "id", person.ID, "name", person.Name)
	return nil
}

// UpdatePerson validates, persists, and updates the cached person.
func (r *Registry) UpdatePerson(ctx context.Context, person *Person) error {
	if err := ValidatePerson(person); err != nil {
		return err
	}

	if err := r.repo.UpdatePerson(ctx, person); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.people[person.ID] = person.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("person updated", "id", person.ID, "name", person.Name)
	return nil
}

// DeletePerson removes a person from persistence and cache.
func (r *Registry) DeletePerson(ctx context.Context, id string) error {
	if err := r.repo.DeletePerson(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.people, id)
	r.cacheMu.Unlock()

	r.logger.Info("person deleted", "id", id)
	return nil
}

// =============================================================================
// Rooms
// =============================================================================

// GetRoom retrieves a room by ID.
// The returned room is a deep copy; callers can safely modify it.
func (r *Registry) GetRoom(_ context.Context, id string) (*Room, error) {
	r.cacheMu.RLock()
	cached, ok := r.rooms[id]
	r.cacheMu.RUnlock()

	if ok {
		return cached.DeepCopy(), nil
	}
	return nil, ErrRoomNotFound
}

// ListRooms retrieves all rooms from the cache in configuration order.
func (r *Registry) ListRooms(_ context.Context) ([]Room, error) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	rooms := make([]Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rooms = append(rooms, *rm.DeepCopy())
	}
	sortRooms(rooms)
	return rooms, nil
}

// CreateRoom validates, persists, and caches a new room.
func (r *Registry) CreateRoom(ctx context.Context, room *Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}

	if err := ValidateRoom(room); err != nil {
		return err
	}

	if err := r.repo.CreateRoom(ctx, room); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.rooms[room.ID] = room.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("room created", "id", room.ID, "name", room.Name)
	return nil
}

// UpdateRoom validates, persists, and updates the cached room.
func (r *Registry) UpdateRoom(ctx context.Context, room *Room) error {
	if err := ValidateRoom(room); err != nil {
		return err
	}

	if err := r.repo.UpdateRoom(ctx, room); err != nil {
		return err
	}

	r.cacheMu.Lock()
	r.rooms[room.ID] = room.DeepCopy()
	r.cacheMu.Unlock()

	r.logger.Info("room updated", "id", room.ID, "name", room.Name)
	return nil
}

// DeleteRoom removes a room from persistence and cache.
func (r *Registry) DeleteRoom(ctx context.Context, id string) error {
	if err := r.repo.DeleteRoom(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.rooms, id)
	r.cacheMu.Unlock()

	r.logger.Info("room deleted", "id", id)
	return nil
}

// =============================================================================
// Group settings
// =============================================================================

// GroupSettings returns the cached group settings.
func (r *Registry) GroupSettings(_ context.Context) *GroupSettings {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	gs := *r.group
	return &gs
}

// UpdateGroupSettings persists and caches new group settings.
func (r *Registry) UpdateGroupSettings(ctx context.Context, settings *GroupSettings) error {
	if settings.Addressee == "" {
		settings.Addressee = "Everyone"
	}

	if err := r.repo.UpdateGroupSettings(ctx, settings); err != nil {
		return err
	}

	r.cacheMu.Lock()
	gs := *settings
	r.group = &gs
	r.cacheMu.Unlock()

	r.logger.Info("group settings updated", "addressee", settings.Addressee)
	return nil
}

// =============================================================================
// Counts
// =============================================================================

// PersonCount returns the number of cached people.
func (r *Registry) PersonCount() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.people)
}

// RoomCount returns the number of cached rooms.
func (r *Registry) RoomCount() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.rooms)
}

// sortPeople sorts people by sort_order then name, matching the DB query ordering.
func sortPeople(people []Person) {
	sort.Slice(people, func(i, j int) bool {
		if people[i].SortOrder != people[j].SortOrder {
			return people[i].SortOrder < people[j].SortOrder
		}
		return people[i].Name < people[j].Name
	})
}

// sortRooms sorts rooms by sort_order then name, matching the DB query ordering.
func sortRooms(rooms []Room) {
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].SortOrder != rooms[j].SortOrder {
			return rooms[i].SortOrder < rooms[j].SortOrder
		}
		return rooms[i].Name < rooms[j].Name
	})
}
