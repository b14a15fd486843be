package energy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mwhitby/homehub-core/internal/homeassistant"
	"github.com/mwhitby/homehub-core/internal/infrastructure/config"
	"github.com/mwhitby/homehub-core/internal/infrastructure/logging"
)

// ErrNoMeterData is returned when neither the usage nor the cost sensor
// produced a usable reading.
var ErrNoMeterData = errors.New("energy: no meter data available")

// wattHoursPerKWh converts Wh sensor readings to kWh.
const wattHoursPerKWh = 1000

// StateSource is the slice of the Home Assistant client the snapshot
// job needs.
type StateSource interface {
	Configured() bool
	FindByFriendlyName(ctx context.Context, fragment string) (*homeassistant.Entity, error)
}

// Mirror receives a copy of each snapshot. Satisfied by the InfluxDB
// client; nil disables mirroring.
type Mirror interface {
	WriteEnergySnapshot(date time.Time, usageKWh, costUSD float64)
}

// Service produces daily snapshots from Home Assistant sensor states.
type Service struct {
	repo   *Repository
	states StateSource
	mirror Mirror
	cfg    config.EnergyConfig
	logger *logging.Logger
}

// NewService wires the snapshot job. mirror may be nil.
func NewService(repo *Repository, states StateSource, mirror Mirror, cfg config.EnergyConfig, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		repo:   repo,
		states: states,
		mirror: mirror,
		cfg:    cfg,
		logger: logger.With("component", "energy"),
	}
}

// History returns snapshots between the optional from/to dates,
// ascending.
func (s *Service) History(ctx context.Context, from, to string) ([]Snapshot, error) {
	return s.repo.History(ctx, from, to)
}

// SnapshotNow reads the configured utility sensors and upserts today's
// row. Missing configuration or an unreachable Home Assistant skips the
// snapshot quietly; a day with neither sensor readable is ErrNoMeterData.
// A sensor that is present but unparsable contributes zero.
func (s *Service) SnapshotNow(ctx context.Context) (*Snapshot, error) {
	if s.states == nil || !s.states.Configured() {
		s.logger.Debug("home assistant not configured, skipping energy snapshot")
		return nil, nil
	}

	usageKWh, usageOK := s.readUsage(ctx)
	costUSD, costOK := s.readCost(ctx)

	if !usageOK && !costOK {
		return nil, ErrNoMeterData
	}

	date := time.Now().Format(DateFormat)
	if err := s.repo.Upsert(ctx, date, usageKWh, costUSD); err != nil {
		return nil, err
	}

	if s.mirror != nil {
		day, err := time.Parse(DateFormat, date)
		if err == nil {
			s.mirror.WriteEnergySnapshot(day, usageKWh, costUSD)
		}
	}

	s.logger.Info("energy snapshot recorded",
		"date", date,
		"usage_kwh", usageKWh,
		"cost_usd", costUSD,
	)

	return s.repo.Get(ctx, date)
}

// readUsage locates the usage sensor by friendly name and normalises its
// reading to kWh.
func (s *Service) readUsage(ctx context.Context) (float64, bool) {
	entity, err := s.findSensor(ctx, s.cfg.UsageEntityName)
	if err != nil {
		return 0, false
	}

	value, err := parseSensorValue(entity.State)
	if err != nil {
		s.logger.Warn("unparsable usage reading",
			"entity", entity.EntityID, "state", entity.State)
		return 0, false
	}

	if unit, _ := entity.Attributes["unit_of_measurement"].(string); strings.EqualFold(unit, "Wh") {
		value /= wattHoursPerKWh
	}
	return value, true
}

// readCost locates the cost sensor and strips any currency symbol.
func (s *Service) readCost(ctx context.Context) (float64, bool) {
	entity, err := s.findSensor(ctx, s.cfg.CostEntityName)
	if err != nil {
		return 0, false
	}

	value, err := parseSensorValue(entity.State)
	if err != nil {
		s.logger.Warn("unparsable cost reading",
			"entity", entity.EntityID, "state", entity.State)
		return 0, false
	}
	return value, true
}

func (s *Service) findSensor(ctx context.Context, friendlyName string) (*homeassistant.Entity, error) {
	if friendlyName == "" {
		return nil, fmt.Errorf("no sensor name configured")
	}
	return s.states.FindByFriendlyName(ctx, friendlyName)
}

// parseSensorValue parses a sensor state into a float, tolerating
// currency symbols and thousands separators ("$1,234.56" -> 1234.56).
// Home Assistant's "unknown"/"unavailable" states fail the parse.
func parseSensorValue(state string) (float64, error) {
	cleaned := strings.TrimSpace(state)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, ",", "")

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing sensor value %q: %w", state, err)
	}
	return value, nil
}
