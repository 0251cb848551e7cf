package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roomcast/roomcast-core/internal/announce"
	"github.com/roomcast/roomcast-core/internal/directory"
	"github.com/roomcast/roomcast-core/internal/gate"
	"github.com/roomcast/roomcast-core/internal/infrastructure/config"
	"github.com/roomcast/roomcast-core/internal/infrastructure/logging"
)

// stubAnnouncer records the last request and returns scripted results.
type stubAnnouncer struct {
	lastReq announce.Request
	result  *announce.Result
	err     error
}

func (a *stubAnnouncer) Announce(_ context.Context, req announce.Request) (*announce.Result, error) {
	a.lastReq = req
	return a.result, a.err
}

// setupTestDB creates an in-memory SQLite database with the roomcast schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
		CREATE TABLE people (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			presence_entity TEXT NOT NULL,
			tracker_entity TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT '',
			tts_engine TEXT NOT NULL DEFAULT '',
			tts_voice TEXT NOT NULL DEFAULT '',
			ai_agent TEXT NOT NULL DEFAULT '',
			enhance INTEGER NOT NULL DEFAULT 0,
			translate INTEGER NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE rooms (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			media_player TEXT NOT NULL DEFAULT '',
			occupancy_sensors TEXT NOT NULL DEFAULT '[]',
			sort_order INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE group_settings (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			addressee TEXT NOT NULL DEFAULT 'Everyone',
			language TEXT NOT NULL DEFAULT '',
			tts_engine TEXT NOT NULL DEFAULT '',
			tts_voice TEXT NOT NULL DEFAULT '',
			ai_agent TEXT NOT NULL DEFAULT '',
			enhance INTEGER NOT NULL DEFAULT 0,
			translate INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE gates (
			key        TEXT PRIMARY KEY,
			enabled    INTEGER NOT NULL DEFAULT 1,
			updated_at TEXT NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	return db
}

// testServer creates a Server over a real registry and gate store
// backed by in-memory SQLite, with a stub announcer.
func testServer(t *testing.T) (*Server, *stubAnnouncer, *directory.Registry) {
	t.Helper()

	db := setupTestDB(t)
	registry := directory.NewRegistry(directory.NewSQLiteRepository(db))
	if err := registry.RefreshCache(context.Background()); err != nil {
		t.Fatalf("RefreshCache: %v", err)
	}

	gates := gate.NewSQLiteStore(db)
	if err := gates.Load(context.Background()); err != nil {
		t.Fatalf("gates Load: %v", err)
	}

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	announcer := &stubAnnouncer{}

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logger:     log,
		Registry:   registry,
		Gates:      gates,
		Dispatcher: announcer,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	srv.hub = NewHub(srv.wsCfg, log)

	return srv, announcer, registry
}

// doRequest runs a request through the full router.
func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rr := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", rr.Body.String(), err)
	}
	return out
}

// ─── Server lifecycle ────────────────────────────────────────────────────────

func TestNew_RequiresDependencies(t *testing.T) {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	if _, err := New(Deps{}); err == nil {
		t.Error("New(empty deps) error = nil, want error")
	}
	if _, err := New(Deps{Logger: log}); err == nil {
		t.Error("New(no registry) error = nil, want error")
	}
}

func TestHealth(t *testing.T) {
	srv, _, _ := testServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/v1/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("health body = %v", body)
	}
}

func TestStatus(t *testing.T) {
	srv, _, registry := testServer(t)
	if err := registry.CreateRoom(context.Background(),
		&directory.Room{Name: "Kitchen", MediaPlayer: "media_player.kitchen"}); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	rr := doRequest(t, srv, http.MethodGet, "/api/v1/status", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["rooms"] != float64(1) || body["people"] != float64(0) {
		t.Errorf("status body = %v", body)
	}
}

// ─── People endpoints ────────────────────────────────────────────────────────

func TestPeopleCRUD(t *testing.T) {
	srv, _, _ := testServer(t)

	// Create
	rr := doRequest(t, srv, http.MethodPost, "/api/v1/people/",
		`{"name":"Alice","presence_entity":"person.alice","tracker_entity":"sensor.alice_room","voice":{"language":"spanish"}}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rr.Code, rr.Body.String())
	}
	created := decodeBody(t, rr)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatal("created person has no id")
	}

	// Get
	rr = doRequest(t, srv, http.MethodGet, "/api/v1/people/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	if got := decodeBody(t, rr); got["name"] != "Alice" {
		t.Errorf("get body = %v", got)
	}

	// List
	rr = doRequest(t, srv, http.MethodGet, "/api/v1/people/", "")
	if body := decodeBody(t, rr); body["count"] != float64(1) {
		t.Errorf("list count = %v, want 1", body["count"])
	}

	// Patch (partial: only the language changes)
	rr = doRequest(t, srv, http.MethodPatch, "/api/v1/people/"+id,
		`{"voice":{"language":"french"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body = %s", rr.Code, rr.Body.String())
	}
	patched := decodeBody(t, rr)
	if patched["name"] != "Alice" {
		t.Errorf("patch dropped name: %v", patched)
	}
	voice, _ := patched["voice"].(map[string]any)
	if voice["language"] != "french" {
		t.Errorf("patch voice = %v", voice)
	}

	// Delete
	rr = doRequest(t, srv, http.MethodDelete, "/api/v1/people/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodGet, "/api/v1/people/"+id, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rr.Code)
	}
}

func TestCreatePerson_ValidationError(t *testing.T) {
	srv, _, _ := testServer(t)

	rr := doRequest(t, srv, http.MethodPost, "/api/v1/people/",
		`{"name":"Bad","presence_entity":"not-an-entity"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if body := decodeBody(t, rr); body["code"] != ErrCodeValidation {
		t.Errorf("code = %v, want %s", body["code"], ErrCodeValidation)
	}
}

func TestCreatePerson_Duplicate(t *testing.T) {
	srv, _, _ := testServer(t)

	payload := `{"id":"person.alice","name":"Alice","presence_entity":"person.alice"}`
	if rr := doRequest(t, srv, http.MethodPost, "/api/v1/people/", payload); rr.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", rr.Code)
	}
	rr := doRequest(t, srv, http.MethodPost, "/api/v1/people/", payload)
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rr.Code)
	}
}

// ─── Room endpoints ──────────────────────────────────────────────────────────

func TestRoomCRUD(t *testing.T) {
	srv, _, _ := testServer(t)

	rr := doRequest(t, srv, http.MethodPost, "/api/v1/rooms/",
		`{"name":"Kitchen","media_player":"media_player.kitchen","occupancy_sensors":["binary_sensor.kitchen_occupancy"]}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rr.Code, rr.Body.String())
	}
	id, _ := decodeBody(t, rr)["id"].(string)

	rr = doRequest(t, srv, http.MethodPatch, "/api/v1/rooms/"+id,
		`{"media_player":"media_player.kitchen_2"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("patch status = %d", rr.Code)
	}
	patched := decodeBody(t, rr)
	if patched["name"] != "Kitchen" || patched["media_player"] != "media_player.kitchen_2" {
		t.Errorf("patch body = %v", patched)
	}

	rr = doRequest(t, srv, http.MethodDelete, "/api/v1/rooms/"+id, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	srv, _, _ := testServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/v1/rooms/room_nowhere", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

// ─── Group settings ──────────────────────────────────────────────────────────

func TestGroupSettings(t *testing.T) {
	srv, _, _ := testServer(t)

	rr := doRequest(t, srv, http.MethodGet, "/api/v1/group/", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	if body := decodeBody(t, rr); body["addressee"] != "Everyone" {
		t.Errorf("default addressee = %v, want Everyone", body["addressee"])
	}

	rr = doRequest(t, srv, http.MethodPut, "/api/v1/group/",
		`{"addressee":"Familia","voice":{"language":"spanish"}}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("put status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/v1/group/", "")
	if body := decodeBody(t, rr); body["addressee"] != "Familia" {
		t.Errorf("updated addressee = %v", body["addressee"])
	}
}

// ─── Gates ───────────────────────────────────────────────────────────────────

func TestGates(t *testing.T) {
	srv, _, registry := testServer(t)

	room := &directory.Room{Name: "Kitchen", MediaPlayer: "media_player.kitchen"}
	if err := registry.CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	// Unrecorded gates do not appear in the listing.
	rr := doRequest(t, srv, http.MethodGet, "/api/v1/gates/", "")
	if body := decodeBody(t, rr); body["count"] != float64(0) {
		t.Errorf("initial gate count = %v, want 0", body["count"])
	}

	rr = doRequest(t, srv, http.MethodPut, "/api/v1/gates/room/"+room.ID, `{"enabled":false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("set gate status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = doRequest(t, srv, http.MethodGet, "/api/v1/gates/", "")
	body := decodeBody(t, rr)
	gates, _ := body["gates"].(map[string]any)
	if gates["room:"+room.ID] != false {
		t.Errorf("gates = %v, want room disabled", gates)
	}
}

func TestSetGate_Invalid(t *testing.T) {
	srv, _, _ := testServer(t)

	rr := doRequest(t, srv, http.MethodPut, "/api/v1/gates/house/kitchen", `{"enabled":false}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad kind status = %d, want 400", rr.Code)
	}

	rr = doRequest(t, srv, http.MethodPut, "/api/v1/gates/room/room_nowhere", `{"enabled":false}`)
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown room status = %d, want 404", rr.Code)
	}
}

// ─── Announce ────────────────────────────────────────────────────────────────

func TestAnnounce_Success(t *testing.T) {
	srv, announcer, _ := testServer(t)
	announcer.result = &announce.Result{
		ID:        "ann-1",
		Delivered: 1,
		Rooms: []announce.RoomResult{
			{RoomID: "room_kitchen", RoomName: "Kitchen", Status: announce.StatusDelivered},
		},
	}

	rr := doRequest(t, srv, http.MethodPost, "/api/v1/announce",
		`{"message":"dinner is ready","target_person":"Mike","pre_announce":false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	if announcer.lastReq.Message != "dinner is ready" || announcer.lastReq.TargetPerson != "Mike" {
		t.Errorf("dispatcher saw request %+v", announcer.lastReq)
	}
	if announcer.lastReq.PreAnnounce == nil || *announcer.lastReq.PreAnnounce {
		t.Error("pre_announce override not passed through as false")
	}

	body := decodeBody(t, rr)
	result, _ := body["result"].(map[string]any)
	if result == nil || result["delivered"] != float64(1) {
		t.Errorf("body = %v", body)
	}
}

func TestAnnounce_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unknown person", announce.ErrUnknownPerson, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown area", announce.ErrUnknownArea, http.StatusBadRequest, ErrCodeBadRequest},
		{"empty message", announce.ErrEmptyMessage, http.StatusBadRequest, ErrCodeBadRequest},
		{"nobody home", announce.ErrNobodyHome, http.StatusNotFound, ErrCodeNoTarget},
		{"nothing occupied", announce.ErrNothingOccupied, http.StatusNotFound, ErrCodeNoTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, announcer, _ := testServer(t)
			announcer.err = tt.err

			rr := doRequest(t, srv, http.MethodPost, "/api/v1/announce", `{"message":"hello"}`)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if body := decodeBody(t, rr); body["code"] != tt.wantCode {
				t.Errorf("code = %v, want %s", body["code"], tt.wantCode)
			}
		})
	}
}

func TestAnnounce_PartialFailureCarriesResult(t *testing.T) {
	srv, announcer, _ := testServer(t)
	announcer.result = &announce.Result{
		ID:        "ann-2",
		Delivered: 1,
		Rooms: []announce.RoomResult{
			{RoomName: "Kitchen", Status: announce.StatusFailed, Reason: announce.ReasonTTSFailed},
			{RoomName: "Office", Status: announce.StatusDelivered},
		},
	}
	announcer.err = announce.ErrTTSFailed

	rr := doRequest(t, srv, http.MethodPost, "/api/v1/announce", `{"message":"hello"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with per-room outcomes", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["error"] == nil || body["result"] == nil {
		t.Errorf("body = %v, want result and error", body)
	}
}

func TestAnnounce_InvalidJSON(t *testing.T) {
	srv, _, _ := testServer(t)

	rr := doRequest(t, srv, http.MethodPost, "/api/v1/announce", `{not json`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}
