package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"procstat-agent/internal/telemetry"
)

// Pruner removes archive files whose bucket ended more than retention ago.
type Pruner struct {
	logger    *slog.Logger
	dir       string
	retention time.Duration
	metrics   *telemetry.Metrics
	now       func() time.Time
	cron      *cron.Cron
}

func NewPruner(logger *slog.Logger, dir string, retention time.Duration, schedule string, metrics *telemetry.Metrics) (*Pruner, error) {
	if retention <= 0 {
		return nil, errors.New("archive retention must be > 0")
	}
	adapter := cronLogger{logger: logger}
	p := &Pruner{
		logger:    logger,
		dir:       dir,
		retention: retention,
		metrics:   metrics,
		now:       time.Now,
		cron: cron.New(
			cron.WithLogger(adapter),
			cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
		),
	}
	if _, err := p.cron.AddFunc(schedule, p.runScheduled); err != nil {
		return nil, fmt.Errorf("parse prune schedule %q: %w", schedule, err)
	}
	return p, nil
}

// Run starts the schedule and blocks until ctx is done.
func (p *Pruner) Run(ctx context.Context) error {
	p.cron.Start()
	<-ctx.Done()
	<-p.cron.Stop().Done()
	return nil
}

func (p *Pruner) runScheduled() {
	if _, err := p.Prune(p.now()); err != nil {
		p.logger.Warn("archive prune failed", "dir", p.dir, "error", err)
	}
}

// Prune deletes expired archives and returns how many were removed.
func (p *Pruner) Prune(now time.Time) (int, error) {
	paths, err := ListDir(p.dir)
	if err != nil {
		return 0, err
	}
	cutoff := now.Add(-p.retention)
	removed := 0
	var errs []error
	for _, path := range paths {
		high, parseErr := ParseFileName(path)
		if parseErr != nil || !high.Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
		p.logger.Debug("archive pruned", "path", path, "high_time", high)
	}
	p.metrics.Pruned(removed)
	return removed, errors.Join(errs...)
}

// cronLogger routes cron's logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
