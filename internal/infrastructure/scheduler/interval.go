package scheduler

import (
	"context"
	"time"

	"SignalFeed/internal/ports"
)

// IntervalScheduler triggers cycles on a fixed period. The first cycle runs
// immediately on start.
type IntervalScheduler struct {
	every time.Duration
	loc   *time.Location
	stop  chan struct{}
}

var _ ports.CycleScheduler = (*IntervalScheduler)(nil)

// NewIntervalScheduler builds a driver ticking every given duration in the
// provided location.
func NewIntervalScheduler(every time.Duration, loc *time.Location) *IntervalScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &IntervalScheduler{every: every, loc: loc}
}

// Start begins ticking; a second Start without Stop is a no-op.
func (s *IntervalScheduler) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	if s.stop != nil {
		return nil
	}

	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(s.every)
		defer ticker.Stop()
		job(time.Now().In(s.loc))
		for {
			select {
			case t := <-ticker.C:
				job(t.In(s.loc))
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			}
		}
	}()

	return nil
}

// Stop halts the ticker goroutine.
func (s *IntervalScheduler) Stop(_ context.Context) error {
	if s.stop == nil {
		return nil
	}
	close(s.stop)
	s.stop = nil
	return nil
}
