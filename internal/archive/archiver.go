package archive

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"procstat-agent/internal/history"
	"procstat-agent/internal/telemetry"
)

// TickPeriod is how often the archiver checks whether a bucket has closed.
const TickPeriod = time.Minute

// Archiver writes one file per closed (low, high] bucket of the history store.
type Archiver struct {
	logger   *slog.Logger
	store    *history.Store
	dir      string
	interval time.Duration
	metrics  *telemetry.Metrics
	now      func() time.Time

	mu       sync.Mutex
	highTime time.Time
}

func NewArchiver(logger *slog.Logger, store *history.Store, dir string, interval time.Duration, metrics *telemetry.Metrics) *Archiver {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &Archiver{
		logger:   logger,
		store:    store,
		dir:      dir,
		interval: interval,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Init sets the first bucket boundary strictly after now.
func (a *Archiver) Init(now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.highTime = Truncate(now, a.interval).Add(a.interval)
	a.metrics.SetHighTime(a.highTime)
}

func (a *Archiver) HighTime() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.highTime
}

// Run ticks every TickPeriod until ctx is done or a write fails. Ticks missed while busy
// are dropped, so at most one bucket is archived per tick.
func (a *Archiver) Run(ctx context.Context) error {
	a.Init(a.now())
	a.logger.Info("archiver started", "dir", a.dir, "interval", a.interval, "high_time", a.HighTime())

	ticker := time.NewTicker(TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := a.Tick(a.now()); err != nil {
				return err
			}
		}
	}
}

// Tick archives the pending bucket once now has passed its high time.
func (a *Archiver) Tick(now time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.highTime.IsZero() {
		a.highTime = Truncate(now, a.interval).Add(a.interval)
		a.metrics.SetHighTime(a.highTime)
		return nil
	}
	if !now.After(a.highTime) {
		return nil
	}

	low := Truncate(a.highTime.Add(-a.interval), a.interval)
	if _, err := a.archive(low, a.highTime); err != nil {
		a.metrics.ArchiveFailed()
		a.logger.Error("archive write failed", "low_time", low, "high_time", a.highTime, "error", err)
		return err
	}
	a.highTime = a.highTime.Add(a.interval)
	a.metrics.SetHighTime(a.highTime)
	return nil
}

// Archive writes the records with low < timestamp <= high and returns the file path.
func (a *Archiver) Archive(low, high time.Time) (string, error) {
	return a.archive(low, high)
}

func (a *Archiver) archive(low, high time.Time) (string, error) {
	path := filepath.Join(a.dir, FileName(high))
	transit := a.store.Window(low, high)

	data, err := encode(transit)
	if err != nil {
		return "", &WriteError{Path: path, Err: err}
	}
	if err := writeAtomic(path, data); err != nil {
		return "", &WriteError{Path: path, Err: err}
	}

	records := transit.Len()
	a.metrics.ArchiveWritten(len(data), records)
	a.logger.Info("archive written", "path", path, "low_time", low, "high_time", high, "records", records)
	return path, nil
}
