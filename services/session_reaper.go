package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/fragisir/automatic-resturent-system/utils"
)

// SessionReaper periodically expires elapsed sessions and completes sessions
// whose order was paid, so tables free up without waiting for the next scan.
type SessionReaper struct {
	orchestrator *Orchestrator
	interval     time.Duration
	scheduler    gocron.Scheduler
}

func NewSessionReaper(orchestrator *Orchestrator, interval time.Duration) (*SessionReaper, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &SessionReaper{
		orchestrator: orchestrator,
		interval:     interval,
		scheduler:    scheduler,
	}, nil
}

func (r *SessionReaper) Start() error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(r.sweep),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule session reaper: %w", err)
	}
	r.scheduler.Start()
	utils.InfoLogger.Printf("Session reaper started (every %s)", r.interval)
	return nil
}

func (r *SessionReaper) Stop() error {
	return r.scheduler.Shutdown()
}

func (r *SessionReaper) sweep() {
	tables, err := r.orchestrator.ReconcileAll(context.Background())
	if err != nil {
		utils.ErrorLogger.Printf("Session reaper: %v", err)
	}
	if tables > 0 {
		utils.InfoLogger.WithField("tables", tables).Info("Session reaper reconciled tables")
	}
}
