package history

import (
	"time"

	"procstat-agent/internal/model"
)

// Store holds one bounded ring per domain. Block and network device rings interleave
// all instances, including TOTAL.
type Store struct {
	capacity int

	CPU            *Ring[model.CPUStat]
	Memory         *Ring[model.MemInfo]
	BlockDevices   *Ring[model.BlockDeviceInfo]
	NetworkDevices *Ring[model.NetworkDeviceInfo]
	Loadavg        *Ring[model.LoadavgInfo]
	Pressure       *Ring[model.PressureInfo]
	VmStat         *Ring[model.VmStatInfo]
	Xfs            *Ring[model.XfsInfo]
}

func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = 1
	}
	return &Store{
		capacity:       capacity,
		CPU:            NewRing[model.CPUStat](capacity),
		Memory:         NewRing[model.MemInfo](capacity),
		BlockDevices:   NewRing[model.BlockDeviceInfo](capacity),
		NetworkDevices: NewRing[model.NetworkDeviceInfo](capacity),
		Loadavg:        NewRing[model.LoadavgInfo](capacity),
		Pressure:       NewRing[model.PressureInfo](capacity),
		VmStat:         NewRing[model.VmStatInfo](capacity),
		Xfs:            NewRing[model.XfsInfo](capacity),
	}
}

func (s *Store) Capacity() int {
	return s.capacity
}

// Window collects every domain's records with low < timestamp <= high.
func (s *Store) Window(low, high time.Time) model.ArchiveTransit {
	return model.ArchiveTransit{
		CPU:            s.CPU.Between(low, high),
		Memory:         s.Memory.Between(low, high),
		BlockDevices:   s.BlockDevices.Between(low, high),
		NetworkDevices: s.NetworkDevices.Between(low, high),
		Loadavg:        s.Loadavg.Between(low, high),
		Pressure:       s.Pressure.Between(low, high),
		VmStat:         s.VmStat.Between(low, high),
		Xfs:            s.Xfs.Between(low, high),
	}
}

// Restore appends archived records through the regular bounded push.
func (s *Store) Restore(t model.ArchiveTransit) {
	s.CPU.PushAll(t.CPU)
	s.Memory.PushAll(t.Memory)
	s.BlockDevices.PushAll(t.BlockDevices)
	s.NetworkDevices.PushAll(t.NetworkDevices)
	s.Loadavg.PushAll(t.Loadavg)
	s.Pressure.PushAll(t.Pressure)
	s.VmStat.PushAll(t.VmStat)
	s.Xfs.PushAll(t.Xfs)
}

func (s *Store) Lengths() map[model.Domain]int {
	return map[model.Domain]int{
		model.DomainCPU:           s.CPU.Len(),
		model.DomainMemory:        s.Memory.Len(),
		model.DomainBlockDevice:   s.BlockDevices.Len(),
		model.DomainNetworkDevice: s.NetworkDevices.Len(),
		model.DomainLoadavg:       s.Loadavg.Len(),
		model.DomainPressure:      s.Pressure.Len(),
		model.DomainVmStat:        s.VmStat.Len(),
		model.DomainXfs:           s.Xfs.Len(),
	}
}
