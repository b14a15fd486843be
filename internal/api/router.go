package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Dashboard assets (images, icons) from a local directory
	if s.cfg.StaticDir != "" {
		fileServer := http.FileServer(http.Dir(s.cfg.StaticDir))
		r.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Auth endpoints (no auth required)
		r.Get("/auth/registration-allowed", s.handleRegistrationAllowed)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		// Home Assistant link status (no secrets exposed)
		r.Get("/homeassistant/status", s.handleHAStatus)

		// WebSocket upgrade. Browser WebSocket clients cannot send an
		// Authorization header, so this sits outside the bearer group;
		// the handler authenticates via the single-use ticket instead.
		r.Get("/ws", s.handleWebSocket)

		// Dev-only endpoints, compiled out of the route table unless enabled
		if s.devCfg.AllowUserReset {
			r.Route("/auth/dev", func(r chi.Router) {
				r.Get("/clear-users", s.handleDevClearUsers)
				r.Post("/clear-users", s.handleDevClearUsers)
				r.Get("/seed-users", s.handleDevSeedUsers)
				r.Post("/seed-users", s.handleDevSeedUsers)
				r.Get("/seed-status", s.handleDevSeedStatus)
			})
		}

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleMe)
			r.Post("/auth/change-password", s.handleChangePassword)

			// WS ticket requires authentication - the ticket then carries
			// the identity to the WebSocket upgrade
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Account administration
			r.Route("/auth/users", func(r chi.Router) {
				r.Use(s.adminMiddleware)

				r.Get("/", s.handleListUsers)
				r.Post("/", s.handleCreateUser)

				r.Route("/{email}", func(r chi.Router) {
					r.Get("/", s.handleGetUser)
					r.Patch("/", s.handleUpdateUser)
					r.Delete("/", s.handleDeleteUser)
				})
			})

			// Home Assistant proxy
			r.Route("/homeassistant", func(r chi.Router) {
				r.Get("/entities", s.handleHAEntities)
				r.Get("/entities/{entityID}", s.handleHAEntity)
			})

			// Energy history
			r.Get("/energy/history", s.handleEnergyHistory)
			r.With(s.adminMiddleware).Post("/energy/snapshot", s.handleEnergySnapshot)
		})
	})

	return r
}

// handleHealth returns the server health status, including optional
// component states.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{}

	if s.mqtt != nil {
		if err := s.mqtt.HealthCheck(r.Context()); err != nil {
			components["mqtt"] = "down"
		} else {
			components["mqtt"] = "ok"
		}
	}
	if s.ha != nil && s.ha.Configured() {
		components["homeassistant"] = "configured"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"components": components,
	})
}
