package directory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for directory persistence operations.
type Repository interface {
	CreatePerson(ctx context.Context, person *Person) error
	ListPeople(ctx context.Context) ([]Person, error)
	GetPerson(ctx context.Context, id string) (*Person, error)
	UpdatePerson(ctx context.Context, person *Person) error
	DeletePerson(ctx context.Context, id string) error

	CreateRoom(ctx context.Context, room *Room) error
	ListRooms(ctx context.Context) ([]Room, error)
	GetRoom(ctx context.Context, id string) (*Room, error)
	UpdateRoom(ctx context.Context, room *Room) error
	DeleteRoom(ctx context.Context, id string) error

	// Group settings live in a single-row table.
	GetGroupSettings(ctx context.Context) (*GroupSettings, error)
	UpdateGroupSettings(ctx context.Context, settings *GroupSettings) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed directory repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreatePerson inserts a new person into the database.
func (r *SQLiteRepository) CreatePerson(ctx context.Context, person *Person) error {
	const query = `INSERT INTO people (id, name, presence_entity, tracker_entity,
		language, tts_engine, tts_voice, ai_agent, enhance, translate, sort_order,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			strftime('%Y-%m-%dT%H:%M:%SZ', 'now'), strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))`
	_, err := r.db.ExecContext(ctx, query,
		person.ID, person.Name, person.PresenceEntity, person.TrackerEntity,
		person.Voice.Language, person.Voice.TTSEngine, person.Voice.TTSVoice,
		person.Voice.AIAgent, boolToInt(person.Voice.Enhance), boolToInt(person.Voice.Translate),
		person.SortOrder)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: person %s", ErrDuplicateID, person.ID)
		}
		return fmt.Errorf("inserting person %s: %w", person.ID, err)
	}
	return nil
}

// ListPeople returns all people in configuration order.
func (r *SQLiteRepository) ListPeople(ctx context.Context) ([]Person, error) {
	const query = `SELECT id, name, presence_entity, tracker_entity,
		language, tts_engine, tts_voice, ai_agent, enhance, translate, sort_order,
		created_at, updated_at
		FROM people ORDER BY sort_order, name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying people: %w", err)
	}
	defer rows.Close()

	var people []Person
	for rows.Next() {
		p, err := scanPersonRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning person row: %w", err)
		}
		people = append(people, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating person rows: %w", err)
	}
	return people, nil
}

// GetPerson returns a single person by ID.
func (r *SQLiteRepository) GetPerson(ctx context.Context, id string) (*Person, error) {
	const query = `SELECT id, name, presence_entity, tracker_entity,
		language, tts_engine, tts_voice, ai_agent, enhance, translate, sort_order,
		created_at, updated_at
		FROM people WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanPerson(row)
}

// UpdatePerson updates an existing person record.
func (r *SQLiteRepository) UpdatePerson(ctx context.Context, person *Person) error {
	const query = `UPDATE people SET name = ?, presence_entity = ?, tracker_entity = ?,
		language = ?, tts_engine = ?, tts_voice = ?, ai_agent = ?,
		enhance = ?, translate = ?, sort_order = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		person.Name, person.PresenceEntity, person.TrackerEntity,
		person.Voice.Language, person.Voice.TTSEngine, person.Voice.TTSVoice,
		person.Voice.AIAgent, boolToInt(person.Voice.Enhance), boolToInt(person.Voice.Translate),
		person.SortOrder, person.ID)
	if err != nil {
		return fmt.Errorf("updating person %s: %w", person.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrPersonNotFound
	}
	return nil
}

// DeletePerson removes a single person by ID.
func (r *SQLiteRepository) DeletePerson(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM people WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting person %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrPersonNotFound
	}
	return nil
}

// CreateRoom inserts a new room into the database.
func (r *SQLiteRepository) CreateRoom(ctx context.Context, room *Room) error {
	sensors, err := marshalSensors(room.OccupancySensors)
	if err != nil {
		return err
	}
	const query = `INSERT INTO rooms (id, name, media_player, occupancy_sensors, sort_order,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?,
			strftime('%Y-%m-%dT%H:%M:%SZ', 'now'), strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))`
	_, err = r.db.ExecContext(ctx, query,
		room.ID, room.Name, room.MediaPlayer, sensors, room.SortOrder)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: room %s", ErrDuplicateID, room.ID)
		}
		return fmt.Errorf("inserting room %s: %w", room.ID, err)
	}
	return nil
}

// ListRooms returns all rooms in configuration order.
func (r *SQLiteRepository) ListRooms(ctx context.Context) ([]Room, error) {
	const query = `SELECT id, name, media_player, occupancy_sensors, sort_order,
		created_at, updated_at
		FROM rooms ORDER BY sort_order, name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		rm, err := scanRoomRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		rooms = append(rooms, *rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating room rows: %w", err)
	}
	return rooms, nil
}

// GetRoom returns a single room by ID.
func (r *SQLiteRepository) GetRoom(ctx context.Context, id string) (*Room, error) {
	const query = `SELECT id, name, media_player, occupancy_sensors, sort_order,
		created_at, updated_at
		FROM rooms WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanRoom(row)
}

// UpdateRoom updates an existing room record.
func (r *SQLiteRepository) UpdateRoom(ctx context.Context, room *Room) error {
	sensors, err := marshalSensors(room.OccupancySensors)
	if err != nil {
		return err
	}
	const query = `UPDATE rooms SET name = ?, media_player = ?, occupancy_sensors = ?,
		sort_order = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		room.Name, room.MediaPlayer, sensors, room.SortOrder, room.ID)
	if err != nil {
		return fmt.Errorf("updating room %s: %w", room.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// DeleteRoom removes a single room by ID.
func (r *SQLiteRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting room %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// GetGroupSettings returns the group settings row, creating defaults if absent.
func (r *SQLiteRepository) GetGroupSettings(ctx context.Context) (*GroupSettings, error) {
	const query = `SELECT addressee, language, tts_engine, tts_voice, ai_agent,
		enhance, translate, updated_at
		FROM group_settings WHERE id = 1`
	row := r.db.QueryRowContext(ctx, query)

	var gs GroupSettings
	var enhance, translate int
	var updatedAt string
	err := row.Scan(&gs.Addressee, &gs.Voice.Language, &gs.Voice.TTSEngine,
		&gs.Voice.TTSVoice, &gs.Voice.AIAgent, &enhance, &translate, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Migration seeds the row; a missing row means a fresh
			// database, so return defaults without failing.
			return &GroupSettings{Addressee: "Everyone"}, nil
		}
		return nil, fmt.Errorf("scanning group settings: %w", err)
	}
	gs.Voice.Enhance = enhance != 0
	gs.Voice.Translate = translate != 0
	gs.UpdatedAt = parseTime(updatedAt)
	return &gs, nil
}

// UpdateGroupSettings replaces the group settings row.
func (r *SQLiteRepository) UpdateGroupSettings(ctx context.Context, settings *GroupSettings) error {
	const query = `INSERT INTO group_settings (id, addressee, language, tts_engine,
		tts_voice, ai_agent, enhance, translate, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?, strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		ON CONFLICT (id) DO UPDATE SET
			addressee = excluded.addressee,
			language = excluded.language,
			tts_engine = excluded.tts_engine,
			tts_voice = excluded.tts_voice,
			ai_agent = excluded.ai_agent,
			enhance = excluded.enhance,
			translate = excluded.translate,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		settings.Addressee, settings.Voice.Language, settings.Voice.TTSEngine,
		settings.Voice.TTSVoice, settings.Voice.AIAgent,
		boolToInt(settings.Voice.Enhance), boolToInt(settings.Voice.Translate))
	if err != nil {
		return fmt.Errorf("updating group settings: %w", err)
	}
	return nil
}

// scanPerson scans a single row into a Person (for QueryRow).
func scanPerson(row *sql.Row) (*Person, error) {
	var p Person
	var enhance, translate int
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Name, &p.PresenceEntity, &p.TrackerEntity,
		&p.Voice.Language, &p.Voice.TTSEngine, &p.Voice.TTSVoice, &p.Voice.AIAgent,
		&enhance, &translate, &p.SortOrder, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("scanning person: %w", err)
	}
	p.Voice.Enhance = enhance != 0
	p.Voice.Translate = translate != 0
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// scanPersonRow scans a person from a Rows cursor.
func scanPersonRow(rows *sql.Rows) (*Person, error) {
	var p Person
	var enhance, translate int
	var createdAt, updatedAt string

	err := rows.Scan(&p.ID, &p.Name, &p.PresenceEntity, &p.TrackerEntity,
		&p.Voice.Language, &p.Voice.TTSEngine, &p.Voice.TTSVoice, &p.Voice.AIAgent,
		&enhance, &translate, &p.SortOrder, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.Voice.Enhance = enhance != 0
	p.Voice.Translate = translate != 0
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// scanRoom scans a single row into a Room (for QueryRow).
func scanRoom(row *sql.Row) (*Room, error) {
	var rm Room
	var sensorsJSON string
	var createdAt, updatedAt string

	err := row.Scan(&rm.ID, &rm.Name, &rm.MediaPlayer, &sensorsJSON,
		&rm.SortOrder, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("scanning room: %w", err)
	}
	rm.OccupancySensors = parseSensors(sensorsJSON)
	rm.CreatedAt = parseTime(createdAt)
	rm.UpdatedAt = parseTime(updatedAt)
	return &rm, nil
}

// scanRoomRow scans a room from a Rows cursor.
func scanRoomRow(rows *sql.Rows) (*Room, error) {
	var rm Room
	var sensorsJSON string
	var createdAt, updatedAt string

	err := rows.Scan(&rm.ID, &rm.Name, &rm.MediaPlayer, &sensorsJSON,
		&rm.SortOrder, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	rm.OccupancySensors = parseSensors(sensorsJSON)
	rm.CreatedAt = parseTime(createdAt)
	rm.UpdatedAt = parseTime(updatedAt)
	return &rm, nil
}

// marshalSensors serializes the sensor list for storage.
func marshalSensors(sensors []string) (string, error) {
	if sensors == nil {
		return "[]", nil
	}
	b, err := json.Marshal(sensors)
	if err != nil {
		return "", fmt.Errorf("marshalling occupancy sensors: %w", err)
	}
	return string(b), nil
}

// parseSensors deserializes a JSON array of sensor entity ids.
func parseSensors(s string) []string {
	if s == "" || s == "[]" {
		return []string{}
	}
	var sensors []string
	if err := json.Unmarshal([]byte(s), &sensors); err != nil {
		return []string{}
	}
	return sensors
}

// parseTime parses an ISO 8601 timestamp from SQLite.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// boolToInt converts a bool to the 0/1 form SQLite stores.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
