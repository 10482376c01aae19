package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/brewco/cafe/internal/model"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, mutating requests must include a valid
// Authorization: Bearer <token> header; reads are public.
func (s *CafeServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/status", s.handleGetStatus)
	mux.HandleFunc("PUT /v1/status", s.handleSetStatus)
	mux.HandleFunc("GET /v1/status/events", s.handleStatusEvents)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/watchers", s.handleListWatchers)
	mux.HandleFunc("GET /v1/menu", s.handleListMenu)
	mux.HandleFunc("POST /v1/menu", s.handleCreateMenuItem)
	mux.HandleFunc("GET /v1/menu/categories", s.handleListCategories)
	mux.HandleFunc("GET /v1/menu/{id}", s.handleGetMenuItem)
	mux.HandleFunc("PATCH /v1/menu/{id}", s.handleUpdateMenuItem)
	mux.HandleFunc("DELETE /v1/menu/{id}", s.handleDeleteMenuItem)
	mux.HandleFunc("GET /v1/gallery", s.handleListPhotos)
	mux.HandleFunc("POST /v1/gallery", s.handleCreatePhoto)
	mux.HandleFunc("DELETE /v1/gallery/{id}", s.handleDeletePhoto)
	mux.HandleFunc("GET /v1/hero", s.handleGetHero)
	mux.HandleFunc("PUT /v1/hero", s.handleUpsertHero)
	return AuthMiddleware(authToken, mux)
}

// handleHealth handles GET /v1/health.
func (s *CafeServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListWatchers handles GET /v1/watchers.
func (s *CafeServer) handleListWatchers(w http.ResponseWriter, r *http.Request) {
	list := s.Presence.List(r.URL.Query().Get("transport"))
	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(list),
		"watchers": list,
	})
}

// pathID parses the {id} path value. It writes a 400 and returns false on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id "+strconv.Quote(r.PathValue("id")))
		return 0, false
	}
	return id, true
}

// queryInt reads an integer query parameter, ignoring malformed values.
func queryInt(r *http.Request, name string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(name))
	return n
}

// decodeBody decodes a JSON request body. It writes a 400 and returns false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeDomainError maps domain errors onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var ie inputError
	switch {
	case errors.As(err, &ie):
		writeError(w, http.StatusBadRequest, ie.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
