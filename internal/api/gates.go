package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/roomcast/roomcast-core/internal/directory"
	"github.com/roomcast/roomcast-core/internal/gate"
)

// gateRequest is the body for gate toggles.
type gateRequest struct {
	Enabled bool `json:"enabled"`
}

// handleListGates returns every recorded gate. Gates with no record
// are enabled and do not appear here.
func (s *Server) handleListGates(w http.ResponseWriter, _ *http.Request) {
	gates := s.gates.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{"gates": gates, "count": len(gates)})
}

// handleSetGate enables or disables announcements for a room or person.
func (s *Server) handleSetGate(w http.ResponseWriter, r *http.Request) {
	kind := gate.Kind(chi.URLParam(r, "kind"))
	if kind != gate.KindRoom && kind != gate.KindPerson {
		writeBadRequest(w, "gate kind must be room or person")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxIDLen {
		writeBadRequest(w, "invalid gate ID")
		return
	}

	// Only configured rooms/people get gates.
	if err := s.checkGateTarget(r, kind, id); err != nil {
		writeNotFound(w, err.Error())
		return
	}

	var req gateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.gates.SetEnabled(r.Context(), kind, id, req.Enabled); err != nil {
		writeInternalError(w, "failed to update gate")
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(ChannelGateChanged, map[string]any{
			"kind":    string(kind),
			"id":      id,
			"enabled": req.Enabled,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"kind":    string(kind),
		"id":      id,
		"enabled": req.Enabled,
	})
}

// checkGateTarget verifies the gate refers to a configured room or person.
func (s *Server) checkGateTarget(r *http.Request, kind gate.Kind, id string) error {
	if kind == gate.KindRoom {
		if _, err := s.registry.GetRoom(r.Context(), id); err != nil {
			if errors.Is(err, directory.ErrRoomNotFound) {
				return errors.New("room not found")
			}
			return err
		}
		return nil
	}
	if _, err := s.registry.GetPerson(r.Context(), id); err != nil {
		if errors.Is(err, directory.ErrPersonNotFound) {
			return errors.New("person not found")
		}
		return err
	}
	return nil
}
