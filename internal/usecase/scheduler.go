package usecase

import (
	"context"
	"log/slog"
	"time"

	"SignalFeed/internal/ports"
)

// Scheduler wires the interval driver with the ingestion pipeline. The
// driver decides frequency; the pipeline exposes no internal clock or loop.
type Scheduler struct {
	driver   ports.CycleScheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.CycleScheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		summary, err := s.pipeline.RunCycle(ctx)
		if err != nil {
			s.logger.Warn("cycle interrupted", "trigger", trigger, "error", err)
			return
		}
		s.logger.Info("cycle finished",
			"trigger", trigger,
			"ingested", summary.TotalIngested(),
			"updated", summary.TotalUpdated(),
			"failed", summary.TotalFailed(),
		)
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Stop(ctx)
}
