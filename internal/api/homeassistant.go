package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mwhitby/homehub-core/internal/homeassistant"
)

// handleHAStatus reports whether a Home Assistant link is configured.
// Public, and deliberately free of URLs and tokens.
func (s *Server) handleHAStatus(w http.ResponseWriter, r *http.Request) {
	configured := s.ha != nil && s.ha.Configured()
	writeJSON(w, http.StatusOK, map[string]bool{"configured": configured})
}

// handleHAEntities proxies entity states, optionally filtered by the
// ?domain= query parameter. An unconfigured link yields an empty list.
func (s *Server) handleHAEntities(w http.ResponseWriter, r *http.Request) {
	if s.ha == nil {
		writeJSON(w, http.StatusOK, []homeassistant.Entity{})
		return
	}

	entities, err := s.ha.GetStates(r.Context(), r.URL.Query().Get("domain"))
	if err != nil {
		if errors.Is(err, homeassistant.ErrUpstream) {
			writeBadGateway(w, "home assistant unavailable")
			return
		}
		s.logger.Error("fetching entity states failed", "error", err)
		writeInternalError(w, "failed to fetch entities")
		return
	}

	writeJSON(w, http.StatusOK, entities)
}

// handleHAEntity proxies a single entity state. Unknown entities and an
// unconfigured link both read as 404 so clients cannot probe whether
// the integration exists.
func (s *Server) handleHAEntity(w http.ResponseWriter, r *http.Request) {
	entityID := chi.URLParam(r, "entityID")

	if s.ha == nil {
		writeNotFound(w, "entity not found")
		return
	}

	entity, err := s.ha.GetEntity(r.Context(), entityID)
	if err != nil {
		switch {
		case errors.Is(err, homeassistant.ErrEntityNotFound),
			errors.Is(err, homeassistant.ErrNotConfigured):
			writeNotFound(w, "entity not found")
		case errors.Is(err, homeassistant.ErrUpstream):
			writeBadGateway(w, "home assistant unavailable")
		default:
			s.logger.Error("fetching entity failed", "entity_id", entityID, "error", err)
			writeInternalError(w, "failed to fetch entity")
		}
		return
	}

	writeJSON(w, http.StatusOK, entity)
}
