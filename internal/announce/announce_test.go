package announce

import (
	"context"
	"sync"
	"testing"

	"github.com/roomcast/roomcast-core/internal/directory"
	"github.com/roomcast/roomcast-core/internal/gate"
	"github.com/roomcast/roomcast-core/internal/host"
	"github.com/roomcast/roomcast-core/internal/infrastructure/config"
)

// ─── Fakes ───────────────────────────────────────────────────────────────────

// fakeRepo is an in-memory directory.Repository.
type fakeRepo struct {
	people []directory.Person
	rooms  []directory.Room
	group  *directory.GroupSettings
}

func (f *fakeRepo) CreatePerson(_ context.Context, p *directory.Person) error {
	f.people = append(f.people, *p)
	return nil
}

func (f *fakeRepo) ListPeople(_ context.Context) ([]directory.Person, error) {
	return append([]directory.Person(nil), f.people...), nil
}

func (f *fakeRepo) GetPerson(_ context.Context, id string) (*directory.Person, error) {
	for _, p := range f.people {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, directory.ErrPersonNotFound
}

func (f *fakeRepo) UpdatePerson(_ context.Context, p *directory.Person) error {
	for i := range f.people {
		if f.people[i].ID == p.ID {
			f.people[i] = *p
			return nil
		}
	}
	return directory.ErrPersonNotFound
}

func (f *fakeRepo) DeletePerson(_ context.Context, id string) error {
	for i := range f.people {
		if f.people[i].ID == id {
			f.people = append(f.people[:i], f.people[i+1:]...)
			return nil
		}
	}
	return directory.ErrPersonNotFound
}

func (f *fakeRepo) CreateRoom(_ context.Context, r *directory.Room) error {
	f.rooms = append(f.rooms, *r)
	return nil
}

func (f *fakeRepo) ListRooms(_ context.Context) ([]directory.Room, error) {
	return append([]directory.Room(nil), f.rooms...), nil
}

func (f *fakeRepo) GetRoom(_ context.Context, id string) (*directory.Room, error) {
	for _, r := range f.rooms {
		if r.ID == id {
			cp := r
			return &cp, nil
		}
	}
	return nil, directory.ErrRoomNotFound
}

func (f *fakeRepo) UpdateRoom(_ context.Context, r *directory.Room) error {
	for i := range f.rooms {
		if f.rooms[i].ID == r.ID {
			f.rooms[i] = *r
			return nil
		}
	}
	return directory.ErrRoomNotFound
}

func (f *fakeRepo) DeleteRoom(_ context.Context, id string) error {
	for i := range f.rooms {
		if f.rooms[i].ID == id {
			f.rooms = append(f.rooms[:i], f.rooms[i+1:]...)
			return nil
		}
	}
	return directory.ErrRoomNotFound
}

func (f *fakeRepo) GetGroupSettings(_ context.Context) (*directory.GroupSettings, error) {
	if f.group == nil {
		return &directory.GroupSettings{Addressee: "Everyone"}, nil
	}
	cp := *f.group
	return &cp, nil
}

func (f *fakeRepo) UpdateGroupSettings(_ context.Context, s *directory.GroupSettings) error {
	cp := *s
	f.group = &cp
	return nil
}

// fakeStates is an in-memory host.StateReader.
type fakeStates struct {
	states map[string]host.State
}

func newFakeStates() *fakeStates {
	return &fakeStates{states: make(map[string]host.State)}
}

func (f *fakeStates) set(entityID, value string, attrs map[string]any) {
	f.states[entityID] = host.State{EntityID: entityID, Value: value, Attributes: attrs}
}

func (f *fakeStates) GetState(entityID string) (host.State, bool) {
	s, ok := f.states[entityID]
	return s, ok
}

// capCall records one capability invocation.
type capCall struct {
	domain   string
	action   string
	payload  map[string]any
	blocking bool
}

// fakeCaller is a scriptable host.CapabilityCaller. Responses and
// errors are keyed by "domain.action"; errFor overrides per call.
type fakeCaller struct {
	mu        sync.Mutex
	calls     []capCall
	responses map[string]map[string]any
	errs      map[string]error
	errFor    func(domain, action string, payload map[string]any) error
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{
		responses: make(map[string]map[string]any),
		errs:      make(map[string]error),
	}
}

func (f *fakeCaller) Call(_ context.Context, domain, action string, payload map[string]any, blocking bool) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, capCall{domain: domain, action: action, payload: payload, blocking: blocking})

	key := domain + "." + action
	if f.errFor != nil {
		if err := f.errFor(domain, action, payload); err != nil {
			return nil, err
		}
	}
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.responses[key], nil
}

func (f *fakeCaller) callsTo(domain, action string) []capCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []capCall
	for _, c := range f.calls {
		if c.domain == domain && c.action == action {
			out = append(out, c)
		}
	}
	return out
}

// speechResponse builds a conversation.process result carrying text.
func speechResponse(text string) map[string]any {
	return map[string]any{
		"response": map[string]any{
			"speech": map[string]any{
				"plain": map[string]any{"speech": text},
			},
		},
	}
}

// fakeEvents records emitted events.
type fakeEvents struct {
	mu     sync.Mutex
	events []emittedEvent
}

type emittedEvent struct {
	name    string
	payload map[string]any
}

func (f *fakeEvents) Emit(name string, payload map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{name: name, payload: payload})
}

func (f *fakeEvents) named(name string) []emittedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []emittedEvent
	for _, e := range f.events {
		if e.name == name {
			out = append(out, e)
		}
	}
	return out
}

// fakeGates is an in-memory gate.Store; unset gates are enabled.
type fakeGates struct {
	disabled map[string]bool
}

func newFakeGates() *fakeGates {
	return &fakeGates{disabled: make(map[string]bool)}
}

func (f *fakeGates) Enabled(kind gate.Kind, id string) bool {
	return !f.disabled[string(kind)+":"+id]
}

func (f *fakeGates) SetEnabled(_ context.Context, kind gate.Kind, id string, enabled bool) error {
	f.disabled[string(kind)+":"+id] = !enabled
	return nil
}

func (f *fakeGates) Snapshot() map[string]bool {
	out := make(map[string]bool)
	for k, v := range f.disabled {
		out[k] = !v
	}
	return out
}

// fakeHub records broadcast channels.
type fakeHub struct {
	mu       sync.Mutex
	channels []string
}

func (f *fakeHub) Broadcast(channel string, _ any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels = append(f.channels, channel)
}

// ─── Builders ────────────────────────────────────────────────────────────────

func newTestRegistry(t *testing.T) *directory.Registry {
	t.Helper()
	reg := directory.NewRegistry(&fakeRepo{})
	if err := reg.RefreshCache(context.Background()); err != nil {
		t.Fatalf("RefreshCache() error = %v", err)
	}
	return reg
}

func addPerson(t *testing.T, reg *directory.Registry, name string, voice directory.VoiceSettings) directory.Person {
	t.Helper()
	slug := slugify(name)
	p := &directory.Person{
		ID:             "person." + slug,
		Name:           name,
		PresenceEntity: "person." + slug,
		TrackerEntity:  "sensor." + slug + "_room",
		Voice:          voice,
		SortOrder:      reg.PersonCount(),
	}
	if err := reg.CreatePerson(context.Background(), p); err != nil {
		t.Fatalf("CreatePerson(%s) error = %v", name, err)
	}
	return *p
}

func addRoom(t *testing.T, reg *directory.Registry, name, mediaPlayer string, sensors ...string) directory.Room {
	t.Helper()
	r := &directory.Room{
		ID:               "room_" + slugify(name),
		Name:             name,
		MediaPlayer:      mediaPlayer,
		OccupancySensors: sensors,
		SortOrder:        reg.RoomCount(),
	}
	if err := reg.CreateRoom(context.Background(), r); err != nil {
		t.Fatalf("CreateRoom(%s) error = %v", name, err)
	}
	return *r
}

func slugify(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}

// markHome puts a person at home, optionally tracked to a room name.
func markHome(states *fakeStates, p directory.Person, roomName string) {
	states.set(p.PresenceEntity, "home", nil)
	if roomName != "" {
		states.set(p.TrackerEntity, roomName, nil)
	}
}

func testConfig() config.AnnounceConfig {
	return config.AnnounceConfig{
		RoomTracking:         true,
		PresenceVerification: false,
		DefaultTTSEngine:     "tts.cloud_say",
		Prompts: config.PromptConfig{
			Translate: config.DefaultPromptTranslate,
			Enhance:   config.DefaultPromptEnhance,
			Both:      config.DefaultPromptBoth,
		},
	}
}

// boolPtr is the request-override helper used across tests.
func boolPtr(v bool) *bool { return &v }

// sanity check that the fakes satisfy their interfaces
var (
	_ directory.Repository  = (*fakeRepo)(nil)
	_ host.StateReader      = (*fakeStates)(nil)
	_ host.CapabilityCaller = (*fakeCaller)(nil)
	_ host.EventEmitter     = (*fakeEvents)(nil)
	_ gate.Store            = (*fakeGates)(nil)
	_ Broadcaster           = (*fakeHub)(nil)
)
