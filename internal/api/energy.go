package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/mwhitby/homehub-core/internal/energy"
)

// handleEnergyHistory returns daily energy snapshots, ascending by date.
// Optional ?from= and ?to= bounds use YYYY-MM-DD.
func (s *Server) handleEnergyHistory(w http.ResponseWriter, r *http.Request) {
	if s.energy == nil {
		writeJSON(w, http.StatusOK, []energy.Snapshot{})
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	for _, bound := range []string{from, to} {
		if bound == "" {
			continue
		}
		if _, err := time.Parse(energy.DateFormat, bound); err != nil {
			writeValidationError(w, "dates must be YYYY-MM-DD")
			return
		}
	}

	history, err := s.energy.History(r.Context(), from, to)
	if err != nil {
		s.logger.Error("fetching energy history failed", "error", err)
		writeInternalError(w, "failed to fetch energy history")
		return
	}
	if history == nil {
		history = []energy.Snapshot{}
	}

	writeJSON(w, http.StatusOK, history)
}

// handleEnergySnapshot triggers an immediate snapshot outside the daily
// schedule. Admin only.
func (s *Server) handleEnergySnapshot(w http.ResponseWriter, r *http.Request) {
	if s.energy == nil {
		writeBadRequest(w, "energy tracking is not configured")
		return
	}

	snapshot, err := s.energy.SnapshotNow(r.Context())
	if err != nil {
		if errors.Is(err, energy.ErrNoMeterData) {
			writeBadGateway(w, "no meter data available")
			return
		}
		s.logger.Error("energy snapshot failed", "error", err)
		writeInternalError(w, "snapshot failed")
		return
	}
	if snapshot == nil {
		// Home Assistant link not configured; nothing to record.
		writeJSON(w, http.StatusOK, map[string]any{"recorded": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"recorded": true,
		"snapshot": snapshot,
	})
}
