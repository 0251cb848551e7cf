package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roomcast/roomcast-core/internal/announce"
)

// handleAnnounce accepts an announcement request and dispatches it.
//
// Resolution failures (unknown target, nobody home) reject the whole
// request. Delivery failures are per room: the response still carries
// every room's outcome so UIs can show exactly what happened.
func (s *Server) handleAnnounce(w http.ResponseWriter, r *http.Request) {
	var req announce.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	result, err := s.dispatcher.Announce(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, announce.ErrEmptyMessage),
			errors.Is(err, announce.ErrUnknownArea),
			errors.Is(err, announce.ErrUnknownPerson):
			writeBadRequest(w, err.Error())
			return
		case errors.Is(err, announce.ErrNobodyHome),
			errors.Is(err, announce.ErrNothingOccupied):
			writeError(w, http.StatusNotFound, ErrCodeNoTarget, err.Error())
			return
		}

		// Partial delivery: some rooms failed but the rest were
		// attempted. Return the per-room outcomes alongside the error.
		if result != nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"result": result,
				"error":  err.Error(),
			})
			return
		}

		writeInternalError(w, "announcement failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}
