package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(cors.Handler(s.corsOptions()))
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		// Announcement entry point
		r.Post("/announce", s.handleAnnounce)

		// People endpoints
		r.Route("/people", func(r chi.Router) {
			r.Get("/", s.handleListPeople)
			r.Post("/", s.handleCreatePerson)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetPerson)
				r.Patch("/", s.handleUpdatePerson)
				r.Delete("/", s.handleDeletePerson)
			})
		})

		// Room endpoints
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", s.handleListRooms)
			r.Post("/", s.handleCreateRoom)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRoom)
				r.Patch("/", s.handleUpdateRoom)
				r.Delete("/", s.handleDeleteRoom)
			})
		})

		// Group settings (single record)
		r.Route("/group", func(r chi.Router) {
			r.Get("/", s.handleGetGroupSettings)
			r.Put("/", s.handleUpdateGroupSettings)
		})

		// Gate endpoints (room/person enable toggles)
		r.Route("/gates", func(r chi.Router) {
			r.Get("/", s.handleListGates)
			r.Put("/{kind}/{id}", s.handleSetGate)
		})

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleStatus returns a directory and connection summary for UIs.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":    s.version,
		"people":     s.registry.PersonCount(),
		"rooms":      s.registry.RoomCount(),
		"ws_clients": s.hub.ClientCount(),
	})
}
