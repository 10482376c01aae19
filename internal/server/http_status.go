package server

import (
	"net/http"
	"strconv"

	"github.com/brewco/cafe/internal/events"
)

// statusQueryID reads the optional ?id= selector. Absent means the
// configured row. It writes a 400 and returns false on a malformed value.
func statusQueryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id "+strconv.Quote(raw))
		return 0, false
	}
	return id, true
}

// handleGetStatus handles GET /v1/status.
func (s *CafeServer) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := statusQueryID(w, r)
	if !ok {
		return
	}
	st, err := s.getStatus(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewStatus(st))
}

// handleSetStatus handles PUT /v1/status. The body is {"is_open": bool}; the
// row comes from ?id= only, never from the body.
func (s *CafeServer) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := statusQueryID(w, r)
	if !ok {
		return
	}
	var in setStatusInput
	if !decodeBody(w, r, &in) {
		return
	}
	in.ID = id
	st, err := s.setStatus(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewStatus(st))
}

// handleStatusEvents handles GET /v1/status/events.
func (s *CafeServer) handleStatusEvents(w http.ResponseWriter, r *http.Request) {
	evts, err := s.store.ListEvents(r.Context(), events.TopicStatusUpdated, queryInt(r, "limit"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": evts})
}
