package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procstat-agent/internal/archive"
	"procstat-agent/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	root := t.TempDir()
	for _, dir := range []string{"proc", "sys", "archive"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	}
	return config.Config{
		PollInterval:           50 * time.Millisecond,
		History:                time.Second,
		ArchiveEnabled:         true,
		ArchiveDir:             filepath.Join(root, "archive"),
		ArchiveIntervalMinutes: 10,
		ArchiveRetention:       time.Hour,
		ArchivePruneSchedule:   "@every 1h",
		ProcPath:               filepath.Join(root, "proc"),
		SysPath:                filepath.Join(root, "sys"),
		UnavailableRecheck:     time.Minute,
		CollectorErrorBackoff:  10 * time.Millisecond,
		ShutdownTimeout:        time.Second,
		LogLevel:               "error",
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_WiresOptionalComponents(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, quietLogger())
	require.NoError(t, err)
	assert.NotNil(t, a.archiver)
	assert.NotNil(t, a.pruner)
	assert.Nil(t, a.conn)
	assert.Equal(t, 20, a.Store().Capacity())

	cfg.ArchiveEnabled = false
	cfg.LibvirtURI = "qemu:///system"
	a, err = New(cfg, quietLogger())
	require.NoError(t, err)
	assert.Nil(t, a.archiver)
	assert.Nil(t, a.pruner)
	assert.NotNil(t, a.conn)
}

func TestNew_RejectsBadPruneSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.ArchivePruneSchedule = "whenever"
	_, err := New(cfg, quietLogger())
	assert.Error(t, err)
}

func TestRun_CorruptPreloadAborts(t *testing.T) {
	cfg := testConfig(t)
	bad := filepath.Join(cfg.ArchiveDir, "procstat_2024-03-01T10-00")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))
	cfg.PreloadArchives = []string{bad}

	a, err := New(cfg, quietLogger())
	require.NoError(t, err)

	err = a.run(context.Background())
	var decodeErr *archive.DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, bad, decodeErr.Path)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(cfg, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
	assert.False(t, a.health.ArchiverServing())
}
