package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mwhitby/homehub-core/internal/auth"
	"github.com/mwhitby/homehub-core/internal/energy"
	"github.com/mwhitby/homehub-core/internal/homeassistant"
	"github.com/mwhitby/homehub-core/internal/infrastructure/config"
	"github.com/mwhitby/homehub-core/internal/infrastructure/logging"
	"github.com/mwhitby/homehub-core/internal/infrastructure/mqtt"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config config.APIConfig
	WS     config.WebSocketConfig
	Dev    config.DevConfig
	Logger *logging.Logger

	Auth      *auth.Service
	AuthStore auth.Store

	// SeedAccounts is the configured seed list, used by the dev re-seed
	// endpoint when dev mode is enabled.
	SeedAccounts []auth.SeedAccount

	HomeAssistant *homeassistant.Client
	Energy        *energy.Service

	// Events feeds broker traffic to WebSocket clients. Optional.
	Events *mqtt.Listener

	// MQTT is used for health reporting only. Optional.
	MQTT *mqtt.Client

	Version string
}

// Server is the hub's HTTP API server. Created with New, started with
// Start, stopped with Close. Safe for concurrent use.
type Server struct {
	cfg    config.APIConfig
	wsCfg  config.WebSocketConfig
	devCfg config.DevConfig
	logger *logging.Logger

	auth      *auth.Service
	authStore auth.Store
	seeds     []auth.SeedAccount
	ha        *homeassistant.Client
	energy    *energy.Service
	events    *mqtt.Listener
	mqtt      *mqtt.Client
	version   string

	server  *http.Server
	hub     *Hub
	tickets *ticketStore
	cancel  context.CancelFunc
}

// New creates an API server with the given dependencies.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	// HomeAssistant, Energy, Events, and MQTT are optional; their routes
	// degrade gracefully when absent.

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		devCfg:    deps.Dev,
		logger:    deps.Logger.With("component", "api"),
		auth:      deps.Auth,
		authStore: deps.AuthStore,
		seeds:     deps.SeedAccounts,
		ha:        deps.HomeAssistant,
		energy:    deps.Energy,
		events:    deps.Events,
		mqtt:      deps.MQTT,
		version:   deps.Version,
		tickets:   newTicketStore(),
	}, nil
}

// Start builds the router, starts the WebSocket hub and ticket cleanup,
// bridges broker events into the hub, and launches the HTTP listener in
// a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	// Internal context so Close() can stop background goroutines
	// independently of the parent.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.wsCfg, s.logger)
	go s.hub.Run(srvCtx)

	go s.tickets.cleanLoop(srvCtx)

	if s.events != nil {
		go s.relayEvents(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// relayEvents forwards broker events from the listener to WebSocket
// clients subscribed to the mqtt.message channel.
func (s *Server) relayEvents(ctx context.Context) {
	events, cancel := s.events.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.hub.Broadcast(ChannelMQTTMessage, event)
		}
	}
}

// Close gracefully shuts down the API server, waiting up to ten seconds
// for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
