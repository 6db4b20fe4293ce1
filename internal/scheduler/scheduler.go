package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/driveon/rental-billing/internal/config"
	"github.com/driveon/rental-billing/internal/model"
	"github.com/driveon/rental-billing/internal/service"
)

// Scheduler drives the recurring billing jobs. It calls the exact same
// service operations the operator endpoints expose, so a manual trigger
// and a timer tick behave identically.
type Scheduler struct {
	cron    *cron.Cron
	billing *service.BillingService
	log     zerolog.Logger
}

func New(cfg *config.Config, billing *service.BillingService, log zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		billing: billing,
		log:     log,
	}

	_, err := s.cron.AddFunc(cfg.Billing.GenerateSchedule, s.runGeneration)
	if err != nil {
		return nil, err
	}
	_, err = s.cron.AddFunc(cfg.Billing.SweepSchedule, s.runSweep)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("billing scheduler started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("billing scheduler stopped")
}

func (s *Scheduler) runGeneration() {
	ctx := context.Background()
	summary, err := s.billing.GenerateMonthlyCharges(ctx, model.SystemPrincipal(), time.Now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled charge generation failed")
		return
	}
	s.log.Info().
		Int64("created", summary.Created).
		Int64("skipped", summary.Skipped).
		Int64("failed", summary.Failed).
		Msg("scheduled charge generation finished")
}

func (s *Scheduler) runSweep() {
	ctx := context.Background()
	summary, err := s.billing.SweepOverdueCharges(ctx, model.SystemPrincipal(), time.Now().UTC())
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled overdue sweep failed")
		return
	}
	s.log.Info().
		Int64("updated", summary.Updated).
		Msg("scheduled overdue sweep finished")
}
