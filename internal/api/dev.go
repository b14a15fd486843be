package api

import (
	"net/http"

	"github.com/mwhitby/homehub-core/internal/auth"
)

// Development-only endpoints for resetting the account store between
// test runs. These routes are only mounted when dev.allow_user_reset is
// enabled in config; they never exist in a production route table.

// handleDevClearUsers deletes every account and reopens registration.
func (s *Server) handleDevClearUsers(w http.ResponseWriter, r *http.Request) {
	n, err := s.auth.ResetAll(r.Context())
	if err != nil {
		s.logger.Error("dev clear-users failed", "error", err)
		writeInternalError(w, "failed to clear users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"cleared":              n,
		"registration_allowed": true,
	})
}

// handleDevSeedUsers re-applies the configured seed accounts.
func (s *Server) handleDevSeedUsers(w http.ResponseWriter, r *http.Request) {
	if len(s.seeds) == 0 {
		writeBadRequest(w, "no seed accounts configured")
		return
	}

	n, err := auth.SeedAccounts(r.Context(), s.authStore, s.seeds, s.logger)
	if err != nil {
		s.logger.Error("dev seed-users failed", "error", err)
		writeInternalError(w, "failed to seed users")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"seeded": n})
}

// handleDevSeedStatus reports which configured seed accounts currently
// exist in the store.
func (s *Server) handleDevSeedStatus(w http.ResponseWriter, r *http.Request) {
	type seedStatus struct {
		Email  string `json:"email"`
		Exists bool   `json:"exists"`
	}

	statuses := make([]seedStatus, 0, len(s.seeds))
	for _, seed := range s.seeds {
		email := auth.NormalizeEmail(seed.Email)
		if email == "" {
			continue
		}

		_, err := s.auth.GetAccount(r.Context(), email)
		statuses = append(statuses, seedStatus{
			Email:  email,
			Exists: err == nil,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"seeds": statuses})
}
