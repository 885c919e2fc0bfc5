package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/NoobButNotNewbie/Limousine-s-managed/internal/config"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron       *cron.Cron
	sweeperSvc *SweeperService
	cfg        config.JobsConfig
	logger     *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(sweeperSvc *SweeperService, cfg config.JobsConfig, logger *logrus.Logger) *CronService {
	// Cron with seconds precision: the expiry sweep runs every minute and
	// its spec carries a seconds field.
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:       c,
		sweeperSvc: sweeperSvc,
		cfg:        cfg,
		logger:     logger,
	}
}

// Start schedules the sweep jobs and starts the scheduler
func (s *CronService) Start() error {
	// Cron format: second minute hour day month weekday
	_, err := s.cron.AddFunc(s.cfg.ExpirySweepSpec, s.expirySweepJob)
	if err != nil {
		return fmt.Errorf("failed to schedule expiry sweep: %w", err)
	}

	_, err = s.cron.AddFunc(s.cfg.FinalizeSweepSpec, s.finalizeSweepJob)
	if err != nil {
		return fmt.Errorf("failed to schedule finalize sweep: %w", err)
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"expiry_spec":   s.cfg.ExpirySweepSpec,
		"finalize_spec": s.cfg.FinalizeSweepSpec,
	}).Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) expirySweepJob() {
	start := time.Now()
	count, err := s.sweeperSvc.ExpirePendingBookings(context.Background())
	if err != nil {
		s.logger.WithError(err).Error("Expiry sweep failed")
		return
	}
	if count > 0 {
		s.logger.WithFields(logrus.Fields{
			"expired":  count,
			"duration": time.Since(start).String(),
		}).Info("Expiry sweep completed")
	}
}

func (s *CronService) finalizeSweepJob() {
	start := time.Now()
	if err := s.sweeperSvc.FinalizeTrips(context.Background()); err != nil {
		s.logger.WithError(err).Error("Finalize sweep failed")
		return
	}
	s.logger.WithField("duration", time.Since(start).String()).Debug("Finalize sweep completed")
}
