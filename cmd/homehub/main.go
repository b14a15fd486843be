// Home Hub Core
//
// Entry point for the home hub: a small self-hosted service that fronts
// a multi-user dashboard with token auth, a Home Assistant proxy, daily
// energy snapshots, and an MQTT-fed WebSocket event stream.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/mwhitby/homehub-core/migrations"

	"github.com/mwhitby/homehub-core/internal/api"
	"github.com/mwhitby/homehub-core/internal/auth"
	"github.com/mwhitby/homehub-core/internal/energy"
	"github.com/mwhitby/homehub-core/internal/homeassistant"
	"github.com/mwhitby/homehub-core/internal/infrastructure/config"
	"github.com/mwhitby/homehub-core/internal/infrastructure/database"
	"github.com/mwhitby/homehub-core/internal/infrastructure/influxdb"
	"github.com/mwhitby/homehub-core/internal/infrastructure/logging"
	"github.com/mwhitby/homehub-core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Components start in dependency order and the deferred
// Close calls unwind them in reverse on shutdown.
func run(ctx context.Context) error { //nolint:gocognit // linear startup sequence
	log := logging.Default()
	log.Info("starting home hub",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Auth service and startup account seeding
	store := auth.NewStore(db.DB)
	tokens := auth.NewTokenIssuer(cfg.Security.JWT.Secret, cfg.Security.JWT.AccessTokenTTL)
	authService := auth.NewService(store, tokens, log)

	seeds := seedAccounts(cfg.Seed.Accounts)
	if len(seeds) > 0 {
		n, seedErr := auth.SeedAccounts(ctx, store, seeds, log)
		if seedErr != nil {
			return fmt.Errorf("seeding accounts: %w", seedErr)
		}
		log.Info("seed accounts applied", "count", n)
	}

	// MQTT is optional: a dead broker must not take the dashboard down.
	var mqttClient *mqtt.Client
	var listener *mqtt.Listener
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			log.Warn("MQTT unavailable, continuing without broker", "error", err)
		} else {
			defer func() {
				log.Info("disconnecting from MQTT")
				if closeErr := mqttClient.Close(); closeErr != nil {
					log.Error("error closing MQTT", "error", closeErr)
				}
			}()
			mqttClient.SetLogger(log)
			mqttClient.SetOnConnect(func() {
				log.Info("MQTT connected")
			})
			mqttClient.SetOnDisconnect(func(err error) {
				log.Warn("MQTT disconnected", "error", err)
			})
			log.Info("MQTT connected",
				"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
				"client_id", cfg.MQTT.Broker.ClientID,
			)

			listener = mqtt.NewListener(mqttClient.Topics(), log)
			if startErr := listener.Start(mqttClient, byte(cfg.MQTT.QoS)); startErr != nil {
				log.Warn("MQTT listener failed to start", "error", startErr)
				listener = nil
			}
		}
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB mirror for energy snapshots (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Home Assistant proxy; unconfigured is a supported state
	haClient := homeassistant.New(cfg.HomeAssistant, log)
	if haClient.Configured() {
		log.Info("home assistant link configured")
	} else {
		log.Info("home assistant link not configured")
	}

	// Energy history and daily snapshot schedule
	var mirror energy.Mirror
	if influxClient != nil {
		mirror = influxClient
	}
	energyService := energy.NewService(energy.NewRepository(db.DB), haClient, mirror, cfg.Energy, log)

	if cfg.Energy.SnapshotCron != "" {
		scheduler, schedErr := energy.NewScheduler(energyService, cfg.Energy.SnapshotCron, log)
		if schedErr != nil {
			return fmt.Errorf("creating energy scheduler: %w", schedErr)
		}
		scheduler.Start()
		defer func() {
			log.Info("stopping energy scheduler")
			scheduler.Stop()
		}()
		log.Info("energy scheduler started", "cron", cfg.Energy.SnapshotCron)
	}

	// HTTP API
	server, err := api.New(api.Deps{
		Config:        cfg.API,
		WS:            cfg.WebSocket,
		Dev:           cfg.Dev,
		Logger:        log,
		Auth:          authService,
		AuthStore:     store,
		SeedAccounts:  seeds,
		HomeAssistant: haClient,
		Energy:        energyService,
		Events:        listener,
		MQTT:          mqttClient,
		Version:       version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, server, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses the HOMEHUB_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HOMEHUB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// seedAccounts converts configured seed entries to the auth package type.
func seedAccounts(entries []config.SeedAccount) []auth.SeedAccount {
	seeds := make([]auth.SeedAccount, 0, len(entries))
	for _, e := range entries {
		seeds = append(seeds, auth.SeedAccount{
			Email:    e.Email,
			Password: e.Password,
			IsAdmin:  e.IsAdmin,
		})
	}
	return seeds
}

// healthCheck verifies the started components respond. MQTT and InfluxDB
// are skipped when not configured.
func healthCheck(ctx context.Context, db *database.DB, server *api.Server, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
