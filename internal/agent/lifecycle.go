package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

func (a *Agent) run(ctx context.Context) error {
	if len(a.cfg.PreloadArchives) > 0 {
		if err := a.loader.Load(a.cfg.PreloadArchives, nil); err != nil {
			return fmt.Errorf("preload archives: %w", err)
		}
		a.logger.Info("archives preloaded", "files", len(a.cfg.PreloadArchives), "lengths", a.store.Lengths())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.scheduler.Run(gctx)
	})
	if a.archiver != nil {
		g.Go(func() error {
			a.health.SetArchiverRunning(true)
			err := a.archiver.Run(gctx)
			a.health.SetArchiverRunning(false)
			if err != nil {
				return fmt.Errorf("archiver stopped: %w", err)
			}
			return nil
		})
	}
	if a.pruner != nil {
		g.Go(func() error {
			return a.pruner.Run(gctx)
		})
	}
	if strings.TrimSpace(a.cfg.ProbeListenAddr) != "" {
		g.Go(func() error {
			return a.runProbe(gctx)
		})
	}
	if strings.TrimSpace(a.cfg.MetricsListenAddr) != "" {
		g.Go(func() error {
			return a.runMetricsServer(gctx)
		})
	}
	g.Go(func() error {
		return a.runHealthLoop(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *Agent) runHealthLoop(ctx context.Context) error {
	t := time.NewTicker(time.Minute)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-t.C:
			if !a.health.SamplerServing(now) {
				a.logger.Warn("sampler is stale", "snapshot", a.health.Snapshot(now))
				continue
			}
			sum := a.store.Summarize()
			a.logger.Debug("agent health",
				"snapshot", a.health.Snapshot(now),
				"lengths", a.store.Lengths(),
				"cpu_busy", sum.CPUBusy,
				"busiest_disk", sum.BusiestDisk,
				"busiest_disk_util_percent", sum.BusiestUtil,
			)
		}
	}
}

func (a *Agent) runMetricsServer(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.metrics.Handler())
	srv := &http.Server{
		Addr:              a.cfg.MetricsListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("metrics endpoint listening", "addr", a.cfg.MetricsListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics endpoint %s: %w", a.cfg.MetricsListenAddr, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (a *Agent) shutdown() {
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Warn("libvirt close failed", "error", err)
		}
	}
}
