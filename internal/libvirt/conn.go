package libvirt

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	golibvirt "github.com/digitalocean/go-libvirt"
)

// errBackoff is returned while a failed dial is still cooling down.
var errBackoff = errors.New("libvirt: reconnect backoff in effect")

// allCells selects the host-wide aggregate in node memory queries.
const allCells = -1

// ConnManager owns one lazily dialed libvirt RPC connection. A failed dial is not retried
// before retryWait has passed, so a missing daemon costs one attempt per window.
type ConnManager struct {
	mu          sync.Mutex
	client      *golibvirt.Libvirt
	uri         string
	logger      *slog.Logger
	retryWait   time.Duration
	nextAttempt time.Time
	now         func() time.Time
}

func NewConnManager(uri string, retryWait time.Duration, logger *slog.Logger) *ConnManager {
	if retryWait <= 0 {
		retryWait = 30 * time.Second
	}
	return &ConnManager{uri: uri, logger: logger, retryWait: retryWait, now: time.Now}
}

func (m *ConnManager) dialLocked() (*golibvirt.Libvirt, error) {
	if m.client != nil {
		return m.client, nil
	}
	if m.now().Before(m.nextAttempt) {
		return nil, errBackoff
	}

	uri, err := parseURI(m.uri)
	if err != nil {
		return nil, err
	}
	c, err := golibvirt.ConnectToURI(uri)
	if err != nil {
		m.nextAttempt = m.now().Add(m.retryWait)
		m.logger.Warn("libvirt connect failed", "uri", uri.Redacted(), "error", err, "retry_in", m.retryWait)
		return nil, fmt.Errorf("connect libvirt %s: %w", uri.Redacted(), err)
	}
	m.client = c
	m.logger.Info("libvirt connected", "uri", uri.Redacted())
	return c, nil
}

// NodeMemoryStats returns the host-wide memory counters in KiB, keyed as libvirt names them.
func (m *ConnManager) NodeMemoryStats() ([]golibvirt.NodeGetMemoryStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, err := m.dialLocked()
	if err != nil {
		return nil, err
	}
	_, n, err := c.NodeGetMemoryStats(0, allCells, 0)
	if err == nil && n > 0 {
		var stats []golibvirt.NodeGetMemoryStats
		stats, _, err = c.NodeGetMemoryStats(n, allCells, 0)
		if err == nil {
			return stats, nil
		}
	}
	if err == nil {
		err = errors.New("no memory parameters reported")
	}
	m.dropLocked()
	return nil, fmt.Errorf("NodeGetMemoryStats: %w", err)
}

func (m *ConnManager) dropLocked() {
	if m.client == nil {
		return
	}
	if err := m.client.Disconnect(); err != nil {
		m.logger.Debug("libvirt disconnect failed", "error", err)
	}
	m.client = nil
}

func (m *ConnManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect()
	m.client = nil
	return err
}

func parseURI(raw string) (*url.URL, error) {
	if raw == "" {
		raw = string(golibvirt.QEMUSystem)
	}
	uri, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse libvirt uri %q: %w", raw, err)
	}
	if uri.Scheme == "" {
		return nil, fmt.Errorf("libvirt uri %q has no scheme", raw)
	}
	return uri, nil
}
