package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procstat-agent/internal/model"
)

func fillStore(s *Store, from, to int) {
	for i := from; i <= to; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		s.CPU.Push(model.CPUStat{Timestamp: at, Name: "all", User: float64(i)})
		s.Memory.Push(model.MemInfo{Timestamp: at, MemTotal: 1 << 30, MemFree: float64(i)})
		s.BlockDevices.Push(model.BlockDeviceInfo{Timestamp: at, DeviceName: "sda", ReadsBytes: float64(i)})
		s.BlockDevices.Push(model.BlockDeviceInfo{Timestamp: at, DeviceName: model.TotalInstance, ReadsBytes: float64(i)})
		s.NetworkDevices.Push(model.NetworkDeviceInfo{Timestamp: at, DeviceName: "eth0", ReceiveBytes: float64(i)})
		s.Loadavg.Push(model.LoadavgInfo{Timestamp: at, Load1: float64(i)})
		s.Pressure.Push(model.PressureInfo{Timestamp: at, CPUSomeAvg10: float64(i)})
		s.VmStat.Push(model.VmStatInfo{Timestamp: at, Pgfault: float64(i)})
		s.Xfs.Push(model.XfsInfo{Timestamp: at, ReadCalls: float64(i)})
	}
}

func TestStore_WindowPartitionsBuckets(t *testing.T) {
	s := NewStore(1000)
	fillStore(s, 0, 30)

	low1 := base
	high1 := base.Add(10 * time.Minute)
	high2 := base.Add(20 * time.Minute)

	first := s.Window(low1, high1)
	second := s.Window(high1, high2)
	whole := s.Window(low1, high2)

	assert.Equal(t, 10, len(first.CPU))
	assert.Equal(t, 10, len(second.CPU))
	assert.Equal(t, len(whole.CPU), len(first.CPU)+len(second.CPU))
	assert.Equal(t, len(whole.BlockDevices), len(first.BlockDevices)+len(second.BlockDevices))

	seen := map[time.Time]int{}
	for _, rec := range append(first.Loadavg, second.Loadavg...) {
		seen[rec.Timestamp]++
	}
	for _, rec := range whole.Loadavg {
		assert.Equal(t, 1, seen[rec.Timestamp], "record at %s", rec.Timestamp)
	}

	// low boundary excluded, high boundary included
	assert.Equal(t, 1.0, first.Loadavg[0].Load1)
	assert.Equal(t, 10.0, first.Loadavg[len(first.Loadavg)-1].Load1)
}

func TestStore_WindowEmptyDomainsAreEmptySlices(t *testing.T) {
	s := NewStore(10)
	w := s.Window(base, base.Add(time.Hour))
	assert.NotNil(t, w.Xfs)
	assert.NotNil(t, w.Pressure)
	assert.Zero(t, w.Len())
}

func TestStore_RestoreRespectsCapacity(t *testing.T) {
	src := NewStore(100)
	fillStore(src, 1, 20)
	transit := src.Window(base, base.Add(time.Hour))

	dst := NewStore(8)
	dst.Restore(transit)

	for domain, n := range dst.Lengths() {
		assert.Equal(t, 8, n, "domain %s", domain)
	}
	oldest, ok := dst.Loadavg.Oldest()
	require.True(t, ok)
	assert.Equal(t, 13.0, oldest.Load1)
}

func TestStore_Capacity(t *testing.T) {
	assert.Equal(t, 1, NewStore(-4).Capacity())
	assert.Equal(t, 42, NewStore(42).Capacity())
}
