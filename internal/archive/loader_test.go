package archive

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procstat-agent/internal/history"
	"procstat-agent/internal/model"
)

func TestLoader_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := history.NewStore(100)
	fillStore(src, clock(10, 0, 5), clock(10, 0, 55), 5*time.Second)
	src.CPU.Push(model.CPUStat{Timestamp: clock(10, 0, 30), Name: "all", User: 0.25, Idle: 3.5})
	src.Pressure.Push(model.PressureInfo{Timestamp: clock(10, 0, 30), CPUSomeAvg10: 1.5, IOFullTotal: 12})
	src.Memory.Push(model.MemInfo{Timestamp: clock(10, 0, 30), MemTotal: 8 << 30, MemAvailable: 1 << 30})

	a := NewArchiver(discardLogger(), src, dir, time.Minute, nil)
	path, err := a.Archive(clock(10, 0, 0), clock(10, 1, 0))
	require.NoError(t, err)

	dst := history.NewStore(100)
	require.NoError(t, NewLoader(discardLogger(), dst, nil).Load([]string{path}, nil))

	assert.Equal(t, src.Loadavg.Snapshot(), dst.Loadavg.Snapshot())
	assert.Equal(t, src.BlockDevices.Snapshot(), dst.BlockDevices.Snapshot())
	assert.Equal(t, src.CPU.Snapshot(), dst.CPU.Snapshot())
	assert.Equal(t, src.Pressure.Snapshot(), dst.Pressure.Snapshot())
	assert.Equal(t, src.Memory.Snapshot(), dst.Memory.Snapshot())
}

func TestLoader_CapacityAppliesOnLoad(t *testing.T) {
	dir := t.TempDir()
	src := history.NewStore(100)
	n := fillStore(src, clock(10, 0, 1), clock(10, 0, 50), time.Second)
	a := NewArchiver(discardLogger(), src, dir, time.Minute, nil)
	path, err := a.Archive(clock(10, 0, 0), clock(10, 1, 0))
	require.NoError(t, err)

	dst := history.NewStore(10)
	require.NoError(t, NewLoader(discardLogger(), dst, nil).Load([]string{path}, nil))

	records := dst.Loadavg.Snapshot()
	require.Len(t, records, 10)
	assert.Equal(t, float64(n-10), records[0].Load1)
}

func TestLoader_MissingFileIsSkipped(t *testing.T) {
	dir := t.TempDir()
	src := history.NewStore(100)
	fillStore(src, clock(10, 0, 10), clock(10, 0, 20), 10*time.Second)
	a := NewArchiver(discardLogger(), src, dir, time.Minute, nil)
	path, err := a.Archive(clock(10, 0, 0), clock(10, 1, 0))
	require.NoError(t, err)
	missing := filepath.Join(dir, "procstat_2024-03-01T09-00")

	var results []FileResult
	dst := history.NewStore(100)
	err = NewLoader(discardLogger(), dst, nil).Load([]string{missing, path}, func(r FileResult) {
		results = append(results, r)
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, FileResult{Path: missing, Status: FileMissing}, results[0])
	assert.Equal(t, FileLoaded, results[1].Status)
	assert.Equal(t, 4, results[1].Records)
	assert.Equal(t, 2, dst.Loadavg.Len())
}

func TestLoader_CorruptFileStopsLoad(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "procstat_2024-03-01T10-00")
	require.NoError(t, os.WriteFile(corrupt, []byte(`{"cpu": [ {"timestamp": `), 0o644))

	src := history.NewStore(100)
	fillStore(src, clock(10, 0, 10), clock(10, 0, 20), 10*time.Second)
	a := NewArchiver(discardLogger(), src, dir, time.Minute, nil)
	good, err := a.Archive(clock(10, 0, 0), clock(10, 1, 0))
	require.NoError(t, err)

	var results []FileResult
	dst := history.NewStore(100)
	err = NewLoader(discardLogger(), dst, nil).Load([]string{corrupt, good}, func(r FileResult) {
		results = append(results, r)
	})

	require.Error(t, err)
	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, corrupt, decodeErr.Path)
	assert.Empty(t, results)
	assert.Zero(t, dst.Loadavg.Len())
}

func TestReadFile_RejectsIncompleteArchives(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"null":    `null`,
		"empty":   `{}`,
		"partial": `{"cpu": [], "memory": [], "blockdevices": [], "networkdevices": [], "loadavg": [], "pressure": [], "vmstat": []}`,
	} {
		path := filepath.Join(dir, "procstat_"+name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		_, err := ReadFile(path)

		var decodeErr *DecodeError
		require.ErrorAs(t, err, &decodeErr, name)
		assert.ErrorIs(t, err, ErrIncompleteArchive, name)
	}
}

func TestReadFile_EmptyBucketIsValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "procstat_2024-03-01T10-00")
	body := `{"cpu": [], "memory": [], "blockdevices": [], "networkdevices": [], "loadavg": [], "pressure": [], "vmstat": [], "xfs": []}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	transit, err := ReadFile(path)

	require.NoError(t, err)
	assert.Zero(t, transit.Len())
	assert.Empty(t, transit.MissingDomains())
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestListDir_OrdersByHighTime(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"procstat_2024-03-01T10-20",
		"procstat_2024-02-28T23-50",
		"procstat_2024-03-01T10-10",
		".procstat_2024-03-01T10-30.abc.tmp",
		"procstat_notatime",
		"unrelated.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
	}

	paths, err := ListDir(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "procstat_2024-02-28T23-50"),
		filepath.Join(dir, "procstat_2024-03-01T10-10"),
		filepath.Join(dir, "procstat_2024-03-01T10-20"),
	}, paths)
}
