package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-uuid"

	"procstat-agent/internal/archive"
	"procstat-agent/internal/collector"
	"procstat-agent/internal/config"
	"procstat-agent/internal/history"
	"procstat-agent/internal/libvirt"
	"procstat-agent/internal/rate"
	"procstat-agent/internal/system"
	"procstat-agent/internal/telemetry"
)

const libvirtRetryWait = 30 * time.Second

type Agent struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *history.Store
	metrics   *telemetry.Metrics
	conn      *libvirt.ConnManager
	scheduler *collector.Scheduler
	archiver  *archive.Archiver
	pruner    *archive.Pruner
	loader    *archive.Loader
	health    *HealthStatus
}

func New(cfg config.Config, logger *slog.Logger) (*Agent, error) {
	procSource, err := system.NewProcSource(cfg.ProcPath, cfg.SysPath)
	if err != nil {
		return nil, fmt.Errorf("proc source: %w", err)
	}

	var (
		source system.Source = procSource
		conn   *libvirt.ConnManager
	)
	if cfg.LibvirtURI != "" {
		conn = libvirt.NewConnManager(cfg.LibvirtURI, libvirtRetryWait, logger)
		source = libvirt.NewMemoryFallback(procSource, conn, logger)
	}

	store := history.NewStore(cfg.HistoryCapacity())
	metrics := telemetry.NewMetrics()
	cycle := collector.NewCycle(logger, source, rate.NewEngine(), store, metrics, collector.Options{
		BlockDeviceExclude:   cfg.BlockDeviceExcludePrefixes,
		NetworkDeviceExclude: cfg.NetworkDeviceExcludePrefixes,
		UnavailableRecheck:   cfg.UnavailableRecheck,
	})

	health := NewHealthStatus(3*cfg.PollInterval, cfg.ArchiveEnabled)
	scheduler := collector.NewScheduler(logger, cycle, cfg.PollInterval, cfg.CollectorErrorBackoff)
	scheduler.OnCycle(health.MarkCycle)

	a := &Agent{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		metrics:   metrics,
		conn:      conn,
		scheduler: scheduler,
		loader:    archive.NewLoader(logger, store, metrics),
		health:    health,
	}

	if cfg.ArchiveEnabled {
		if !cfg.ArchiveIntervalAligned() {
			logger.Warn("archive interval does not divide 60 minutes, buckets will not align with the hour",
				"archive_interval_minutes", cfg.ArchiveIntervalMinutes)
		}
		a.archiver = archive.NewArchiver(logger, store, cfg.ArchiveDir, cfg.ArchiveInterval(), metrics)
		if cfg.ArchiveRetention > 0 {
			a.pruner, err = archive.NewPruner(logger, cfg.ArchiveDir, cfg.ArchiveRetention, cfg.ArchivePruneSchedule, metrics)
			if err != nil {
				return nil, fmt.Errorf("archive pruner: %w", err)
			}
		}
	}
	return a, nil
}

func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("starting procstat-agent",
		"poll_interval", a.cfg.PollInterval,
		"history_capacity", a.store.Capacity(),
		"archive_enabled", a.cfg.ArchiveEnabled,
		"proc_path", a.cfg.ProcPath,
	)
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- a.run(runCtx)
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case runErr = <-runErrCh:
	case sig := <-sigCh:
		a.logger.Info("shutdown signal received, starting graceful shutdown", "signal", sig.String(), "timeout", a.cfg.ShutdownTimeout)
		cancelRun()

		graceTimer := time.NewTimer(a.cfg.ShutdownTimeout)
		defer graceTimer.Stop()

		select {
		case runErr = <-runErrCh:
		case sig2 := <-sigCh:
			a.logger.Warn("second signal received, forcing immediate shutdown", "signal", sig2.String())
			runErr = context.Canceled
		case <-graceTimer.C:
			a.logger.Warn("graceful shutdown timeout reached, forcing shutdown", "timeout", a.cfg.ShutdownTimeout)
			runErr = context.DeadlineExceeded
		}
	}

	a.shutdown()

	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	a.logger.Info("procstat-agent stopped")
	return nil
}

// Store exposes the history for in-process readers.
func (a *Agent) Store() *history.Store {
	return a.store
}

// BuildLogger logs to stdout. Every line carries a run_id unique to this process.
func BuildLogger(cfg config.Config) *slog.Logger {
	return buildLogger(cfg, os.Stdout)
}

func buildLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	hOpts := &slog.HandlerOptions{Level: level}
	var logger *slog.Logger
	if cfg.LogJSON {
		logger = slog.New(slog.NewJSONHandler(w, hOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(w, hOpts))
	}
	if id, err := uuid.GenerateUUID(); err == nil {
		logger = logger.With("run_id", id)
	}
	return logger
}
