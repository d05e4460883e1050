package collector

import (
	"context"
	"log/slog"
	"time"
)

// Runner is the unit of work the scheduler repeats on every poll tick.
type Runner interface {
	RunOnce(now time.Time) Report
}

// Scheduler drives a Runner at a fixed poll interval. Missed ticks are dropped.
type Scheduler struct {
	logger       *slog.Logger
	cycle        Runner
	interval     time.Duration
	errorBackoff time.Duration
	now          func() time.Time
	onCycle      func(Report)
}

func NewScheduler(logger *slog.Logger, cycle Runner, interval, errorBackoff time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	if errorBackoff < 0 {
		errorBackoff = 0
	}
	return &Scheduler{
		logger:       logger,
		cycle:        cycle,
		interval:     interval,
		errorBackoff: errorBackoff,
		now:          time.Now,
	}
}

// OnCycle registers a callback invoked after every cycle, on the sampling goroutine.
func (s *Scheduler) OnCycle(fn func(Report)) {
	s.onCycle = fn
}

func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	report := s.cycle.RunOnce(s.now())
	if s.onCycle != nil {
		s.onCycle(report)
	}
	if len(report.Errors) == len(report.Outcomes) && len(report.Outcomes) > 0 {
		s.logger.Error("every domain failed this cycle", "error", report.Err())
		s.sleepWithContext(ctx, s.errorBackoff)
	}
}

func (s *Scheduler) sleepWithContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
