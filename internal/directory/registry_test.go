package directory

import (
	"context"
	"errors"
	"testing"
)

func setupRegistry(t *testing.T) *Registry {
	t.Helper()
	repo := NewSQLiteRepository(setupTestDB(t))
	reg := NewRegistry(repo)
	if err := reg.RefreshCache(context.Background()); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}
	return reg
}

func TestRegistry_CreateAndGet(t *testing.T) {
	reg := setupRegistry(t)
	ctx := context.Background()

	p := testPerson("alice", "Alice")
	if err := reg.CreatePerson(ctx, p); err != nil {
		t.Fatalf("CreatePerson() error = %v", err)
	}

	got, err := reg.GetPerson(ctx, "alice")
	if err != nil {
		t.Fatalf("GetPerson() error = %v", err)
	}
	if got.Name != "Alice" {
		t.Errorf("Name = %q, want %q", got.Name, "Alice")
	}

	// Mutating the returned copy must not affect the cache.
	got.Name = "Mallory"
	again, err := reg.GetPerson(ctx, "alice")
	if err != nil {
		t.Fatalf("GetPerson() error = %v", err)
	}
	if again.Name != "Alice" {
		t.Errorf("cache mutated through returned copy: Name = %q", again.Name)
	}
}

func TestRegistry_GeneratesID(t *testing.T) {
	reg := setupRegistry(t)

	p := &Person{Name: "Alice", PresenceEntity: "person.alice"}
	if err := reg.CreatePerson(context.Background(), p); err != nil {
		t.Fatalf("CreatePerson() error = %v", err)
	}
	if p.ID == "" {
		t.Error("CreatePerson() did not generate an ID")
	}
}

func TestRegistry_ValidationRejected(t *testing.T) {
	reg := setupRegistry(t)
	ctx := context.Background()

	err := reg.CreatePerson(ctx, &Person{Name: "", PresenceEntity: "person.x"})
	if !errors.Is(err, ErrInvalidName) {
		t.Errorf("CreatePerson(empty name) error = %v, want ErrInvalidName", err)
	}

	err = reg.CreatePerson(ctx, &Person{Name: "X", PresenceEntity: "not-an-entity"})
	if !errors.Is(err, ErrInvalidEntity) {
		t.Errorf("CreatePerson(bad entity) error = %v, want ErrInvalidEntity", err)
	}

	err = reg.CreateRoom(ctx, &Room{Name: "Kitchen", MediaPlayer: "speaker"})
	if !errors.Is(err, ErrInvalidEntity) {
		t.Errorf("CreateRoom(bad media player) error = %v, want ErrInvalidEntity", err)
	}
}

func TestRegistry_DeleteEvictsCache(t *testing.T) {
	reg := setupRegistry(t)
	ctx := context.Background()

	if err := reg.CreateRoom(ctx, testRoom("kitchen", "Kitchen")); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	if reg.RoomCount() != 1 {
		t.Fatalf("RoomCount() = %d, want 1", reg.RoomCount())
	}

	if err := reg.DeleteRoom(ctx, "kitchen"); err != nil {
		t.Fatalf("DeleteRoom() error = %v", err)
	}
	if reg.RoomCount() != 0 {
		t.Errorf("RoomCount() = %d, want 0", reg.RoomCount())
	}
	if _, err := reg.GetRoom(ctx, "kitchen"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("GetRoom(deleted) error = %v, want ErrRoomNotFound", err)
	}
}

func TestRegistry_RefreshCacheLoadsExisting(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.CreatePerson(ctx, testPerson("alice", "Alice")); err != nil {
		t.Fatalf("CreatePerson() error = %v", err)
	}

	reg := NewRegistry(repo)
	if err := reg.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}
	if reg.PersonCount() != 1 {
		t.Errorf("PersonCount() = %d, want 1", reg.PersonCount())
	}
}

// ─── Matching ────────────────────────────────────────────────────────────────

func TestMatchPerson(t *testing.T) {
	reg := setupRegistry(t)
	ctx := context.Background()

	p := testPerson("person.alice_smith", "Alice")
	p.PresenceEntity = "person.alice_smith"
	p.TrackerEntity = "sensor.alice_smith_room"
	if err := reg.CreatePerson(ctx, p); err != nil {
		t.Fatalf("CreatePerson() error = %v", err)
	}

	tests := []struct {
		name  string
		ref   string
		found bool
	}{
		{"display name", "Alice", true},
		{"display name case-insensitive", "alice", true},
		{"id suffix", "alice_smith", true},
		{"id suffix case-insensitive", "ALICE_SMITH", true},
		{"suffix with spaces", "alice smith", true},
		{"suffix with spaces mixed case", "Alice Smith", true},
		{"unknown", "Bob", false},
		{"empty", "", false},
		{"whitespace only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := reg.MatchPerson(tt.ref)
			if ok != tt.found {
				t.Fatalf("MatchPerson(%q) found = %v, want %v", tt.ref, ok, tt.found)
			}
			if ok && got.ID != "person.alice_smith" {
				t.Errorf("MatchPerson(%q) id = %q", tt.ref, got.ID)
			}
		})
	}
}

func TestMatchPerson_DisplayNameWinsOverSuffix(t *testing.T) {
	reg := setupRegistry(t)
	ctx := context.Background()

	// One person displays as "Bob", another's id suffix is "bob".
	display := testPerson("person.robert", "Bob")
	display.PresenceEntity = "person.robert"
	display.TrackerEntity = "sensor.robert_room"
	if err := reg.CreatePerson(ctx, display); err != nil {
		t.Fatalf("CreatePerson() error = %v", err)
	}
	suffix := testPerson("person.bob", "Robert Jr")
	suffix.PresenceEntity = "person.bob"
	suffix.TrackerEntity = "sensor.bob_room"
	if err := reg.CreatePerson(ctx, suffix); err != nil {
		t.Fatalf("CreatePerson() error = %v", err)
	}

	got, ok := reg.MatchPerson("bob")
	if !ok {
		t.Fatal("MatchPerson() found = false, want true")
	}
	if got.ID != "person.robert" {
		t.Errorf("MatchPerson() id = %q, want person.robert (display name wins)", got.ID)
	}
}

func TestMatchRoom(t *testing.T) {
	reg := setupRegistry(t)
	ctx := context.Background()

	if err := reg.CreateRoom(ctx, testRoom("kitchen", "The Kitchen")); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	if _, ok := reg.MatchRoom("KITCHEN"); !ok {
		t.Error("MatchRoom(id, case-insensitive) found = false, want true")
	}
	if _, ok := reg.MatchRoom("the kitchen"); !ok {
		t.Error("MatchRoom(name, case-insensitive) found = false, want true")
	}
	if _, ok := reg.MatchRoom("garage"); ok {
		t.Error("MatchRoom(unknown) found = true, want false")
	}
}

func TestRoomsWithSpeaker(t *testing.T) {
	reg := setupRegistry(t)
	ctx := context.Background()

	withSpeaker := testRoom("kitchen", "Kitchen")
	if err := reg.CreateRoom(ctx, withSpeaker); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}
	noSpeaker := &Room{ID: "hallway", Name: "Hallway"}
	if err := reg.CreateRoom(ctx, noSpeaker); err != nil {
		t.Fatalf("CreateRoom() error = %v", err)
	}

	rooms := reg.RoomsWithSpeaker()
	if len(rooms) != 1 {
		t.Fatalf("RoomsWithSpeaker() returned %d rooms, want 1", len(rooms))
	}
	if rooms[0].ID != "kitchen" {
		t.Errorf("RoomsWithSpeaker()[0] = %q, want kitchen", rooms[0].ID)
	}
}

func TestPersonByPresenceEntity(t *testing.T) {
	reg := setupRegistry(t)
	ctx := context.Background()

	if err := reg.CreatePerson(ctx, testPerson("alice", "Alice")); err != nil {
		t.Fatalf("CreatePerson() error = %v", err)
	}

	got, ok := reg.PersonByPresenceEntity("person.alice")
	if !ok {
		t.Fatal("PersonByPresenceEntity() found = false, want true")
	}
	if got.ID != "alice" {
		t.Errorf("id = %q, want alice", got.ID)
	}

	if _, ok := reg.PersonByPresenceEntity("person.nobody"); ok {
		t.Error("PersonByPresenceEntity(unknown) found = true, want false")
	}
}
