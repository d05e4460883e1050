package agent

import (
	"sync/atomic"
	"time"

	"procstat-agent/internal/collector"
)

const (
	ServiceSampler  = "procstat.sampler"
	ServiceArchiver = "procstat.archiver"
)

type HealthStatus struct {
	staleAfter      time.Duration
	archiverEnabled bool

	lastCycleAt     atomic.Int64
	lastCycleFailed atomic.Int32
	archiverRunning atomic.Bool
}

func NewHealthStatus(staleAfter time.Duration, archiverEnabled bool) *HealthStatus {
	return &HealthStatus{staleAfter: staleAfter, archiverEnabled: archiverEnabled}
}

func (h *HealthStatus) MarkCycle(r collector.Report) {
	h.lastCycleAt.Store(r.At.UnixNano())
	h.lastCycleFailed.Store(int32(len(r.Errors)))
}

func (h *HealthStatus) SetArchiverRunning(ok bool) {
	h.archiverRunning.Store(ok)
}

// SamplerServing is true once a cycle ran within staleAfter of now.
func (h *HealthStatus) SamplerServing(now time.Time) bool {
	v := h.lastCycleAt.Load()
	if v == 0 {
		return false
	}
	return now.Sub(time.Unix(0, v)) <= h.staleAfter
}

// ArchiverServing is true while the archiver loop runs, or always when archiving is off.
func (h *HealthStatus) ArchiverServing() bool {
	return !h.archiverEnabled || h.archiverRunning.Load()
}

func (h *HealthStatus) Snapshot(now time.Time) map[string]any {
	out := map[string]any{
		"sampler_serving":     h.SamplerServing(now),
		"archiver_enabled":    h.archiverEnabled,
		"archiver_running":    h.archiverRunning.Load(),
		"last_cycle_failures": h.lastCycleFailed.Load(),
	}
	if v := h.lastCycleAt.Load(); v > 0 {
		out["last_cycle_at"] = time.Unix(0, v).UTC()
	}
	return out
}
