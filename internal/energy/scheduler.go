package energy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mwhitby/homehub-core/internal/infrastructure/logging"
)

// snapshotTimeout bounds a single scheduled snapshot run.
const snapshotTimeout = 30 * time.Second

// Scheduler runs the daily snapshot on a cron spec.
type Scheduler struct {
	cron    *cron.Cron
	service *Service
	logger  *logging.Logger
}

// NewScheduler validates the cron spec (standard 5-field format) and
// registers the snapshot job. The scheduler is created stopped; call
// Start to begin ticking.
func NewScheduler(service *Service, spec string, logger *logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Default()
	}

	s := &Scheduler{
		cron:    cron.New(),
		service: service,
		logger:  logger.With("component", "energy-scheduler"),
	}

	if _, err := s.cron.AddFunc(spec, s.runSnapshot); err != nil {
		return nil, fmt.Errorf("invalid snapshot cron spec %q: %w", spec, err)
	}

	return s, nil
}

// Start begins the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("energy snapshot scheduler started")
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("energy snapshot scheduler stopped")
}

func (s *Scheduler) runSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	if _, err := s.service.SnapshotNow(ctx); err != nil {
		if errors.Is(err, ErrNoMeterData) {
			s.logger.Warn("scheduled energy snapshot found no meter data")
			return
		}
		s.logger.Error("scheduled energy snapshot failed", "error", err)
	}
}
