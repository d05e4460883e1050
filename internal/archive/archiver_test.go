package archive

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procstat-agent/internal/history"
	"procstat-agent/internal/model"
	"procstat-agent/internal/telemetry"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fillStore pushes one loadavg and one block device record every step in [from, to].
func fillStore(store *history.Store, from, to time.Time, step time.Duration) int {
	n := 0
	for at := from; !at.After(to); at = at.Add(step) {
		store.Loadavg.Push(model.LoadavgInfo{Timestamp: at, Load1: float64(n)})
		store.BlockDevices.Push(model.BlockDeviceInfo{Timestamp: at, DeviceName: "sda", ReadsCompletedSuccess: float64(n)})
		n++
	}
	return n
}

func TestArchiver_InitialHighTime(t *testing.T) {
	a := NewArchiver(discardLogger(), history.NewStore(10), t.TempDir(), time.Minute, nil)

	a.Init(clock(10, 0, 30))

	assert.True(t, clock(10, 1, 0).Equal(a.HighTime()))
}

func TestArchiver_InitialHighTimeOnBoundary(t *testing.T) {
	a := NewArchiver(discardLogger(), history.NewStore(10), t.TempDir(), 10*time.Minute, nil)

	a.Init(clock(12, 20, 0))

	assert.True(t, clock(12, 30, 0).Equal(a.HighTime()))
}

func TestArchiver_TickClosesBucket(t *testing.T) {
	dir := t.TempDir()
	store := history.NewStore(1000)
	fillStore(store, clock(9, 59, 0), clock(10, 1, 30), 15*time.Second)
	a := NewArchiver(discardLogger(), store, dir, time.Minute, telemetry.NewMetrics())
	a.Init(clock(10, 0, 30))

	require.NoError(t, a.Tick(clock(10, 0, 45)))
	require.NoError(t, a.Tick(clock(10, 1, 0)))
	_, err := os.Stat(filepath.Join(dir, "procstat_2024-03-01T10-01"))
	require.True(t, errors.Is(err, os.ErrNotExist), "bucket must not close while now == high_time")

	require.NoError(t, a.Tick(clock(10, 1, 5)))
	assert.True(t, clock(10, 2, 0).Equal(a.HighTime()))

	transit, err := ReadFile(filepath.Join(dir, "procstat_2024-03-01T10-01"))
	require.NoError(t, err)
	require.Len(t, transit.Loadavg, 4)
	assert.True(t, clock(10, 0, 15).Equal(transit.Loadavg[0].Timestamp))
	assert.True(t, clock(10, 1, 0).Equal(transit.Loadavg[3].Timestamp))
	assert.NotNil(t, transit.CPU)
	assert.Empty(t, transit.CPU)
}

func TestArchiver_ConsecutiveBucketsPartitionHistory(t *testing.T) {
	dir := t.TempDir()
	store := history.NewStore(1000)
	fillStore(store, clock(10, 0, 0), clock(10, 20, 0), 7*time.Second)
	a := NewArchiver(discardLogger(), store, dir, 10*time.Minute, nil)

	first, err := a.Archive(clock(10, 0, 0), clock(10, 10, 0))
	require.NoError(t, err)
	second, err := a.Archive(clock(10, 10, 0), clock(10, 20, 0))
	require.NoError(t, err)

	seen := map[time.Time]int{}
	for _, path := range []string{first, second} {
		transit, err := ReadFile(path)
		require.NoError(t, err)
		for _, r := range transit.Loadavg {
			seen[r.Timestamp]++
		}
	}

	expected := 0
	for _, r := range store.Loadavg.Snapshot() {
		if r.Timestamp.After(clock(10, 0, 0)) && !r.Timestamp.After(clock(10, 20, 0)) {
			expected++
			assert.Equal(t, 1, seen[r.Timestamp], "record at %s", r.Timestamp)
		}
	}
	assert.Len(t, seen, expected)
}

func TestArchiver_WriteFailureIsFatal(t *testing.T) {
	store := history.NewStore(10)
	missing := filepath.Join(t.TempDir(), "does-not-exist")
	m := telemetry.NewMetrics()
	a := NewArchiver(discardLogger(), store, missing, time.Minute, m)
	a.Init(clock(10, 0, 30))

	err := a.Tick(clock(10, 1, 30))

	require.Error(t, err)
	var writeErr *WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, filepath.Join(missing, "procstat_2024-03-01T10-01"), writeErr.Path)
	assert.True(t, clock(10, 1, 0).Equal(a.HighTime()), "high_time must not advance on failure")
}

func TestArchiver_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := history.NewStore(10)
	fillStore(store, clock(10, 0, 10), clock(10, 0, 50), 10*time.Second)
	a := NewArchiver(discardLogger(), store, dir, time.Minute, nil)

	_, err := a.Archive(clock(10, 0, 0), clock(10, 1, 0))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "procstat_2024-03-01T10-01", entries[0].Name())
}

func TestArchiver_RewriteReplacesBucketFile(t *testing.T) {
	dir := t.TempDir()
	store := history.NewStore(10)
	a := NewArchiver(discardLogger(), store, dir, time.Minute, nil)

	path, err := a.Archive(clock(10, 0, 0), clock(10, 1, 0))
	require.NoError(t, err)
	empty, err := ReadFile(path)
	require.NoError(t, err)
	assert.Zero(t, empty.Len())

	fillStore(store, clock(10, 0, 10), clock(10, 0, 50), 10*time.Second)
	again, err := a.Archive(clock(10, 0, 0), clock(10, 1, 0))
	require.NoError(t, err)
	require.Equal(t, path, again)

	full, err := ReadFile(path)
	require.NoError(t, err)
	assert.NotZero(t, full.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
