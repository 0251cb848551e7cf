package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roomcast/roomcast-core/internal/directory"
)

// maxIDLen limits URL parameter length to prevent oversized params.
const maxIDLen = 100

// ─── People ──────────────────────────────────────────────────────────────────

// handleListPeople returns all configured people.
func (s *Server) handleListPeople(w http.ResponseWriter, r *http.Request) {
	people, err := s.registry.ListPeople(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list people")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"people": people, "count": len(people)})
}

// handleGetPerson returns a single person by ID.
func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIDLen {
		writeBadRequest(w, "invalid person ID")
		return
	}

	person, err := s.registry.GetPerson(r.Context(), id)
	if err != nil {
		if errors.Is(err, directory.ErrPersonNotFound) {
			writeNotFound(w, "person not found")
			return
		}
		writeInternalError(w, "failed to get person")
		return
	}
	writeJSON(w, http.StatusOK, person)
}

// handleCreatePerson creates a new person.
func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	var person directory.Person
	if err := json.NewDecoder(r.Body).Decode(&person); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.registry.CreatePerson(r.Context(), &person); err != nil {
		s.writeDirectoryError(w, err, "failed to create person")
		return
	}

	s.broadcastDirectoryUpdate("person_created", person.ID)
	writeJSON(w, http.StatusCreated, person)
}

// handleUpdatePerson partially updates a person.
func (s *Server) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIDLen {
		writeBadRequest(w, "invalid person ID")
		return
	}

	person, err := s.registry.GetPerson(r.Context(), id)
	if err != nil {
		if errors.Is(err, directory.ErrPersonNotFound) {
			writeNotFound(w, "person not found")
			return
		}
		writeInternalError(w, "failed to get person")
		return
	}

	// Fields present in the body override; absent fields keep their
	// current values.
	if err := json.NewDecoder(r.Body).Decode(person); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	person.ID = id

	if err := s.registry.UpdatePerson(r.Context(), person); err != nil {
		s.writeDirectoryError(w, err, "failed to update person")
		return
	}

	s.broadcastDirectoryUpdate("person_updated", id)
	writeJSON(w, http.StatusOK, person)
}

// handleDeletePerson removes a person.
func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIDLen {
		writeBadRequest(w, "invalid person ID")
		return
	}

	if err := s.registry.DeletePerson(r.Context(), id); err != nil {
		if errors.Is(err, directory.ErrPersonNotFound) {
			writeNotFound(w, "person not found")
			return
		}
		writeInternalError(w, "failed to delete person")
		return
	}

	s.broadcastDirectoryUpdate("person_deleted", id)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// ─── Rooms ───────────────────────────────────────────────────────────────────

// handleListRooms returns all configured rooms.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.registry.ListRooms(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms, "count": len(rooms)})
}

// handleGetRoom returns a single room by ID.
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIDLen {
		writeBadRequest(w, "invalid room ID")
		return
	}

	room, err := s.registry.GetRoom(r.Context(), id)
	if err != nil {
		if errors.Is(err, directory.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to get room")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// handleCreateRoom creates a new room.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var room directory.Room
	if err := json.NewDecoder(r.Body).Decode(&room); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.registry.CreateRoom(r.Context(), &room); err != nil {
		s.writeDirectoryError(w, err, "failed to create room")
		return
	}

	s.broadcastDirectoryUpdate("room_created", room.ID)
	writeJSON(w, http.StatusCreated, room)
}

// handleUpdateRoom partially updates a room.
func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIDLen {
		writeBadRequest(w, "invalid room ID")
		return
	}

	room, err := s.registry.GetRoom(r.Context(), id)
	if err != nil {
		if errors.Is(err, directory.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to get room")
		return
	}

	if err := json.NewDecoder(r.Body).Decode(room); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	room.ID = id

	if err := s.registry.UpdateRoom(r.Context(), room); err != nil {
		s.writeDirectoryError(w, err, "failed to update room")
		return
	}

	s.broadcastDirectoryUpdate("room_updated", id)
	writeJSON(w, http.StatusOK, room)
}

// handleDeleteRoom removes a room.
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIDLen {
		writeBadRequest(w, "invalid room ID")
		return
	}

	if err := s.registry.DeleteRoom(r.Context(), id); err != nil {
		if errors.Is(err, directory.ErrRoomNotFound) {
			writeNotFound(w, "room not found")
			return
		}
		writeInternalError(w, "failed to delete room")
		return
	}

	s.broadcastDirectoryUpdate("room_deleted", id)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

// ─── Group settings ──────────────────────────────────────────────────────────

// handleGetGroupSettings returns the group voice settings.
func (s *Server) handleGetGroupSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.GroupSettings(r.Context()))
}

// handleUpdateGroupSettings replaces the group voice settings.
func (s *Server) handleUpdateGroupSettings(w http.ResponseWriter, r *http.Request) {
	var settings directory.GroupSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.registry.UpdateGroupSettings(r.Context(), &settings); err != nil {
		s.writeDirectoryError(w, err, "failed to update group settings")
		return
	}

	s.broadcastDirectoryUpdate("group_updated", "")
	writeJSON(w, http.StatusOK, settings)
}

// ─── Shared helpers ──────────────────────────────────────────────────────────

// writeDirectoryError maps directory errors onto HTTP responses.
func (s *Server) writeDirectoryError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, directory.ErrInvalidName), errors.Is(err, directory.ErrInvalidEntity):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, directory.ErrDuplicateID):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, directory.ErrPersonNotFound), errors.Is(err, directory.ErrRoomNotFound):
		writeNotFound(w, err.Error())
	default:
		writeInternalError(w, fallback)
	}
}

// broadcastDirectoryUpdate pushes a directory change to WebSocket
// clients so UIs can refresh.
func (s *Server) broadcastDirectoryUpdate(change, id string) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(ChannelDirectoryUpdated, map[string]any{
		"change": change,
		"id":     id,
	})
}
