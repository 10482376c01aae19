package server

import (
	"net/http"

	"github.com/brewco/cafe/internal/model"
)

// handleListPhotos handles GET /v1/gallery.
func (s *CafeServer) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := s.store.ListPhotos(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if photos == nil {
		photos = []*model.Photo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"photos": photos})
}

// handleCreatePhoto handles POST /v1/gallery.
func (s *CafeServer) handleCreatePhoto(w http.ResponseWriter, r *http.Request) {
	var in photoInput
	if !decodeBody(w, r, &in) {
		return
	}
	photo, err := s.createPhoto(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, photo)
}

// handleDeletePhoto handles DELETE /v1/gallery/{id}.
func (s *CafeServer) handleDeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deletePhoto(r.Context(), id, r.URL.Query().Get("actor")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetHero handles GET /v1/hero.
func (s *CafeServer) handleGetHero(w http.ResponseWriter, r *http.Request) {
	hero, err := s.store.GetHero(r.Context(), s.heroRowID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hero)
}

// handleUpsertHero handles PUT /v1/hero.
func (s *CafeServer) handleUpsertHero(w http.ResponseWriter, r *http.Request) {
	var in heroInput
	if !decodeBody(w, r, &in) {
		return
	}
	hero, err := s.upsertHero(r.Context(), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hero)
}
