package server

import (
	"net/http"

	"github.com/brewco/cafe/internal/model"
)

// handleListMenu handles GET /v1/menu.
func (s *CafeServer) handleListMenu(w http.ResponseWriter, r *http.Request) {
	filter := model.MenuFilter{
		Category: r.URL.Query().Get("category"),
		Limit:    queryInt(r, "limit"),
		Offset:   queryInt(r, "offset"),
	}
	items, err := s.store.ListMenuItems(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if items == nil {
		items = []*model.MenuItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleCreateMenuItem handles POST /v1/menu.
func (s *CafeServer) handleCreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var in menuItemInput
	if !decodeBody(w, r, &in) {
		return
	}
	item, err := s.createMenuItem(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// handleListCategories handles GET /v1/menu/categories.
func (s *CafeServer) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.listCategories(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

// handleGetMenuItem handles GET /v1/menu/{id}.
func (s *CafeServer) handleGetMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, err := s.store.GetMenuItem(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleUpdateMenuItem handles PATCH /v1/menu/{id}.
func (s *CafeServer) handleUpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var patch menuItemPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	item, err := s.updateMenuItem(r.Context(), id, patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleDeleteMenuItem handles DELETE /v1/menu/{id}.
func (s *CafeServer) handleDeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deleteMenuItem(r.Context(), id, r.URL.Query().Get("actor")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
