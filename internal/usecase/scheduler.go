package usecase

import (
	"context"
	"time"

	"github.com/nori266/hn-filtered/internal/ports"
)

// Scheduler wires the interval driver with recurring pipeline runs.
type Scheduler struct {
	driver ports.Scheduler
	run    func(context.Context, time.Time)
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, run func(context.Context, time.Time)) *Scheduler {
	return &Scheduler{driver: driver, run: run}
}

// Start registers the run callback with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.run == nil {
		return nil
	}
	return s.driver.Start(ctx, func(trigger time.Time) {
		s.run(ctx, trigger)
	})
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
