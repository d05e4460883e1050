package libvirt

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	golibvirt "github.com/digitalocean/go-libvirt"

	"procstat-agent/internal/system"
)

// MemoryFallback is a system.Source that asks libvirtd for node memory whenever
// /proc/meminfo cannot be read. Every other domain is served by the wrapped source.
type MemoryFallback struct {
	system.Source
	stats  func() ([]golibvirt.NodeGetMemoryStats, error)
	logger *slog.Logger
	now    func() time.Time
}

func NewMemoryFallback(inner system.Source, conn *ConnManager, logger *slog.Logger) *MemoryFallback {
	return &MemoryFallback{Source: inner, stats: conn.NodeMemoryStats, logger: logger, now: time.Now}
}

func (f *MemoryFallback) Memory() (system.MemorySnapshot, error) {
	snap, err := f.Source.Memory()
	if err == nil {
		return snap, nil
	}

	stats, statsErr := f.stats()
	if statsErr != nil {
		if !errors.Is(statsErr, errBackoff) {
			f.logger.Debug("libvirt memory fallback failed", "error", statsErr)
		}
		return system.MemorySnapshot{}, err
	}
	fallback, ok := memorySnapshotFromStats(stats, f.now().UTC())
	if !ok {
		return system.MemorySnapshot{}, err
	}
	return fallback, nil
}

// memorySnapshotFromStats maps libvirt's KiB node counters onto the meminfo fields they
// correspond to. ok is false when no total was reported.
func memorySnapshotFromStats(stats []golibvirt.NodeGetMemoryStats, at time.Time) (system.MemorySnapshot, bool) {
	values := make(map[string]uint64, len(stats))
	for _, st := range stats {
		values[strings.ToLower(st.Field)] = st.Value * 1024
	}
	total, ok := values["total"]
	if !ok || total == 0 {
		return system.MemorySnapshot{}, false
	}

	pick := func(name string) *uint64 {
		v, found := values[name]
		if !found {
			return nil
		}
		return &v
	}
	return system.MemorySnapshot{
		Timestamp: at,
		MemTotal:  &total,
		MemFree:   pick("free"),
		Buffers:   pick("buffers"),
		Cached:    pick("cached"),
	}, true
}
