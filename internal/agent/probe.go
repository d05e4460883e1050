package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const probeSyncInterval = 5 * time.Second

// runProbe serves grpc.health.v1 on the probe address until ctx is done.
func (a *Agent) runProbe(ctx context.Context) error {
	addr := strings.TrimSpace(a.cfg.ProbeListenAddr)
	if addr == "" {
		return fmt.Errorf("empty probe listen address")
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen probe endpoint %s: %w", addr, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	syncHealth(hs, a.health, time.Now())

	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(probeSyncInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				// Report NOT_SERVING to watchers before the listener goes away.
				hs.Shutdown()
				srv.GracefulStop()
				return
			case now := <-t.C:
				syncHealth(hs, a.health, now)
			}
		}
	}()

	a.logger.Info("probe endpoint listening", "addr", addr)
	serveErr := srv.Serve(ln)
	cancel()
	<-done
	if serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
		return fmt.Errorf("serve probe endpoint %s: %w", addr, serveErr)
	}
	return nil
}

func syncHealth(hs *health.Server, h *HealthStatus, now time.Time) {
	sampler := h.SamplerServing(now)
	archiver := h.ArchiverServing()

	hs.SetServingStatus(ServiceSampler, servingStatus(sampler))
	if h.archiverEnabled {
		hs.SetServingStatus(ServiceArchiver, servingStatus(archiver))
	}
	hs.SetServingStatus("", servingStatus(sampler && archiver))
}

func servingStatus(ok bool) healthpb.HealthCheckResponse_ServingStatus {
	if ok {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}
