package system

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureStat = `cpu  1000 20 300 40000 50 6 7 8 0 0
cpu0 600 10 200 20000 30 3 4 5 0 0
cpu1 400 10 100 20000 20 3 3 3 0 0
intr 0
ctxt 100
btime 1700000000
processes 500
procs_running 3
procs_blocked 1
`

const fixtureMeminfo = `MemTotal:       16000000 kB
MemFree:         8000000 kB
MemAvailable:   12000000 kB
Buffers:          100000 kB
Cached:          2000000 kB
SwapTotal:       1000000 kB
SwapFree:        1000000 kB
HugePages_Total:       4
HugePages_Free:        2
`

const fixtureDiskstats = `   8       0 sda 100 1 800 50 200 2 1600 100 0 150 150 10 0 80 5 3 7
   8       1 sda1 60 0 480 30 120 0 960 60 0 90 90
   8      16 sdb 50 0 400 20 10 0 80 5 0 25 25
 253       0 dm-0 60 0 480 30 120 0 960 60 0 90 90
   7       0 loop0 9 0 72 1 0 0 0 0 0 1 1
`

const fixtureNetDev = `Inter-|   Receive                                                |  Transmit
 face |bytes    packets errs drop fifo frame compressed multicast|bytes    packets errs drop fifo colls carrier compressed
    lo:    1000      10    0    0    0     0          0         0     1000      10    0    0    0     0       0          0
  eth0:    5000      50    1    2    0     0          0         3     6000      60    0    0    0     0       0          0
`

const fixtureVmstat = `nr_free_pages 2000000
nr_dirty 12
pgpgin 4096
pgpgout 8192
pgfault 123456
pgmajfault 12
oom_kill 0
`

const fixturePSI = `some avg10=1.50 avg60=0.75 avg300=0.10 total=123456
full avg10=0.50 avg60=0.25 avg300=0.05 total=6543
`

func writeFixture(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newFixtureSource(t *testing.T, withPressure bool) *ProcSource {
	t.Helper()
	root := t.TempDir()
	proc := filepath.Join(root, "proc")
	sys := filepath.Join(root, "sys")
	for _, dir := range []string{"block/sda", "block/sdb", "block/loop0", "block/dm-0/slaves/sda1"} {
		require.NoError(t, os.MkdirAll(filepath.Join(sys, dir), 0o755))
	}

	writeFixture(t, proc, "stat", fixtureStat)
	writeFixture(t, proc, "meminfo", fixtureMeminfo)
	writeFixture(t, proc, "diskstats", fixtureDiskstats)
	writeFixture(t, proc, "net/dev", fixtureNetDev)
	writeFixture(t, proc, "loadavg", "0.10 0.20 0.30 3/200 1234\n")
	writeFixture(t, proc, "vmstat", fixtureVmstat)
	if withPressure {
		for _, r := range []string{"cpu", "memory", "io"} {
			writeFixture(t, proc, "pressure/"+r, fixturePSI)
		}
	}

	src, err := NewProcSource(proc, sys)
	require.NoError(t, err)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return fixed }
	return src
}

func TestProcSource_CPU(t *testing.T) {
	src := newFixtureSource(t, false)

	snap, err := src.CPU()
	require.NoError(t, err)

	assert.InDelta(t, 10.0, snap.All.User, 1e-9)
	assert.InDelta(t, 400.0, snap.All.Idle, 1e-9)
	require.Len(t, snap.PerCPU, 2)
	assert.Equal(t, "cpu0", snap.PerCPU[0].Name)
	assert.Equal(t, "cpu1", snap.PerCPU[1].Name)
	assert.InDelta(t, 4.0, snap.PerCPU[1].Times.User, 1e-9)
	assert.Equal(t, time.UTC, snap.Timestamp.Location())
}

func TestProcSource_MemoryInBytes(t *testing.T) {
	src := newFixtureSource(t, false)

	snap, err := src.Memory()
	require.NoError(t, err)

	require.NotNil(t, snap.MemTotal)
	assert.Equal(t, uint64(16000000*1024), *snap.MemTotal)
	require.NotNil(t, snap.HugePagesTotal)
	assert.Equal(t, uint64(4), *snap.HugePagesTotal)
	assert.Nil(t, snap.Shmem)
}

func TestProcSource_BlockDevicesOptionalCounters(t *testing.T) {
	src := newFixtureSource(t, false)

	snap, err := src.BlockDevices()
	require.NoError(t, err)
	require.Len(t, snap.Devices, 5)

	byName := map[string]BlockDeviceCounters{}
	for _, d := range snap.Devices {
		byName[d.Name] = d
	}

	sda := byName["sda"]
	assert.Equal(t, uint64(100), sda.ReadIOs)
	assert.Equal(t, uint64(800), sda.ReadSectors)
	require.NotNil(t, sda.DiscardIOs)
	assert.Equal(t, uint64(10), *sda.DiscardIOs)
	require.NotNil(t, sda.FlushIOs)
	assert.Equal(t, uint64(3), *sda.FlushIOs)

	sdb := byName["sdb"]
	assert.Nil(t, sdb.DiscardIOs)
	assert.Nil(t, sdb.FlushIOs)
}

func TestProcSource_BlockDevicesMarkPartitionsAndStackedDevices(t *testing.T) {
	src := newFixtureSource(t, false)

	snap, err := src.BlockDevices()
	require.NoError(t, err)

	derived := map[string]bool{}
	for _, d := range snap.Devices {
		derived[d.Name] = d.Derived
	}
	assert.Equal(t, map[string]bool{
		"dm-0":  true,
		"loop0": false,
		"sda":   false,
		"sda1":  true,
		"sdb":   false,
	}, derived)
}

func TestProcSource_BlockDevicesWithoutSysBlock(t *testing.T) {
	src := newFixtureSource(t, false)
	require.NoError(t, os.RemoveAll(filepath.Join(src.sysPath, "block")))

	snap, err := src.BlockDevices()
	require.NoError(t, err)
	for _, d := range snap.Devices {
		assert.False(t, d.Derived, d.Name)
	}
}

func TestProcSource_NetworkDevices(t *testing.T) {
	src := newFixtureSource(t, false)

	snap, err := src.NetworkDevices()
	require.NoError(t, err)
	require.Len(t, snap.Devices, 2)
	assert.Equal(t, "eth0", snap.Devices[0].Name)
	assert.Equal(t, uint64(5000), snap.Devices[0].RxBytes)
	assert.Equal(t, uint64(3), snap.Devices[0].RxMulticast)
	assert.Equal(t, "lo", snap.Devices[1].Name)
}

func TestProcSource_LoadavgIncludesProcs(t *testing.T) {
	src := newFixtureSource(t, false)

	snap, err := src.Loadavg()
	require.NoError(t, err)
	assert.InDelta(t, 0.10, snap.Load1, 1e-9)
	assert.InDelta(t, 0.30, snap.Load15, 1e-9)
	assert.Equal(t, uint64(3), snap.ProcsRunning)
	assert.Equal(t, uint64(1), snap.ProcsBlocked)
}

func TestProcSource_VmStat(t *testing.T) {
	src := newFixtureSource(t, false)

	snap, err := src.VmStat()
	require.NoError(t, err)
	require.NotNil(t, snap.Get("pgfault"))
	assert.Equal(t, uint64(123456), *snap.Get("pgfault"))
	assert.Nil(t, snap.Get("pgscan_direct"))
}

func TestProcSource_Pressure(t *testing.T) {
	src := newFixtureSource(t, true)

	snap, err := src.Pressure()
	require.NoError(t, err)
	require.NotNil(t, snap.CPUSome)
	assert.InDelta(t, 1.5, snap.CPUSome.Avg10, 1e-9)
	assert.Equal(t, uint64(123456), snap.CPUSome.Total)
	require.NotNil(t, snap.IOFull)
	assert.Equal(t, uint64(6543), snap.IOFull.Total)
}

func TestProcSource_MissingFilesAreUnavailable(t *testing.T) {
	src := newFixtureSource(t, false)

	_, err := src.Xfs()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))

	var acquireErr *AcquireError
	require.ErrorAs(t, err, &acquireErr)
	assert.Equal(t, "xfs", acquireErr.Domain)

	require.NoError(t, os.Remove(filepath.Join(src.procPath, "vmstat")))
	_, err = src.VmStat()
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestAcquireError_TransientIsNotUnavailable(t *testing.T) {
	err := acquireError("cpu", errors.New("short read"))
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.Contains(t, err.Error(), "acquire cpu")
}
