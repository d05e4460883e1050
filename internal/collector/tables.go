package collector

import (
	"time"

	"procstat-agent/internal/model"
	"procstat-agent/internal/system"
)

const sectorBytes = 512

type (
	cpuRaw      = system.CPUCore
	memRaw      = system.MemorySnapshot
	diskRaw     = system.BlockDeviceCounters
	netRaw      = system.NetworkDeviceCounters
	loadRaw     = system.LoadavgSnapshot
	pressureRaw = system.PressureSnapshot
	vmRaw       = system.VmStatSnapshot
	xfsRaw      = system.XfsSnapshot
)

var cpuSet = instanceSet[cpuRaw, model.CPUStat]{
	domain: model.DomainCPU,
	name:   func(c *cpuRaw) string { return c.Name },
	stamp: func(r *model.CPUStat, at time.Time, instance string) {
		r.Timestamp, r.Name = at, instance
	},
	table: []field[cpuRaw, model.CPUStat]{
		floatCounter("user", func(c *cpuRaw) float64 { return c.Times.User }, func(r *model.CPUStat) *float64 { return &r.User }),
		floatCounter("nice", func(c *cpuRaw) float64 { return c.Times.Nice }, func(r *model.CPUStat) *float64 { return &r.Nice }),
		floatCounter("system", func(c *cpuRaw) float64 { return c.Times.System }, func(r *model.CPUStat) *float64 { return &r.System }),
		floatCounter("idle", func(c *cpuRaw) float64 { return c.Times.Idle }, func(r *model.CPUStat) *float64 { return &r.Idle }),
		floatCounter("iowait", func(c *cpuRaw) float64 { return c.Times.IOWait }, func(r *model.CPUStat) *float64 { return &r.IOWait }),
		floatCounter("irq", func(c *cpuRaw) float64 { return c.Times.IRQ }, func(r *model.CPUStat) *float64 { return &r.IRQ }),
		floatCounter("softirq", func(c *cpuRaw) float64 { return c.Times.SoftIRQ }, func(r *model.CPUStat) *float64 { return &r.SoftIRQ }),
		floatCounter("steal", func(c *cpuRaw) float64 { return c.Times.Steal }, func(r *model.CPUStat) *float64 { return &r.Steal }),
		floatCounter("guest", func(c *cpuRaw) float64 { return c.Times.Guest }, func(r *model.CPUStat) *float64 { return &r.Guest }),
		floatCounter("guest_nice", func(c *cpuRaw) float64 { return c.Times.GuestNice }, func(r *model.CPUStat) *float64 { return &r.GuestNice }),
	},
}

func memField(name string, get func(*memRaw) *uint64, dst func(*model.MemInfo) *float64) field[memRaw, model.MemInfo] {
	return optGauge(name, func(s *memRaw) *float64 { return u2f(get(s)) }, dst)
}

var memoryTable = []field[memRaw, model.MemInfo]{
	memField("memtotal", func(s *memRaw) *uint64 { return s.MemTotal }, func(r *model.MemInfo) *float64 { return &r.MemTotal }),
	memField("memfree", func(s *memRaw) *uint64 { return s.MemFree }, func(r *model.MemInfo) *float64 { return &r.MemFree }),
	memField("memavailable", func(s *memRaw) *uint64 { return s.MemAvailable }, func(r *model.MemInfo) *float64 { return &r.MemAvailable }),
	memField("buffers", func(s *memRaw) *uint64 { return s.Buffers }, func(r *model.MemInfo) *float64 { return &r.Buffers }),
	memField("cached", func(s *memRaw) *uint64 { return s.Cached }, func(r *model.MemInfo) *float64 { return &r.Cached }),
	memField("swapcached", func(s *memRaw) *uint64 { return s.SwapCached }, func(r *model.MemInfo) *float64 { return &r.SwapCached }),
	memField("active", func(s *memRaw) *uint64 { return s.Active }, func(r *model.MemInfo) *float64 { return &r.Active }),
	memField("inactive", func(s *memRaw) *uint64 { return s.Inactive }, func(r *model.MemInfo) *float64 { return &r.Inactive }),
	memField("active_anon", func(s *memRaw) *uint64 { return s.ActiveAnon }, func(r *model.MemInfo) *float64 { return &r.ActiveAnon }),
	memField("inactive_anon", func(s *memRaw) *uint64 { return s.InactiveAnon }, func(r *model.MemInfo) *float64 { return &r.InactiveAnon }),
	memField("active_file", func(s *memRaw) *uint64 { return s.ActiveFile }, func(r *model.MemInfo) *float64 { return &r.ActiveFile }),
	memField("inactive_file", func(s *memRaw) *uint64 { return s.InactiveFile }, func(r *model.MemInfo) *float64 { return &r.InactiveFile }),
	memField("swaptotal", func(s *memRaw) *uint64 { return s.SwapTotal }, func(r *model.MemInfo) *float64 { return &r.SwapTotal }),
	memField("swapfree", func(s *memRaw) *uint64 { return s.SwapFree }, func(r *model.MemInfo) *float64 { return &r.SwapFree }),
	memField("dirty", func(s *memRaw) *uint64 { return s.Dirty }, func(r *model.MemInfo) *float64 { return &r.Dirty }),
	memField("writeback", func(s *memRaw) *uint64 { return s.Writeback }, func(r *model.MemInfo) *float64 { return &r.Writeback }),
	memField("anonpages", func(s *memRaw) *uint64 { return s.AnonPages }, func(r *model.MemInfo) *float64 { return &r.AnonPages }),
	memField("mapped", func(s *memRaw) *uint64 { return s.Mapped }, func(r *model.MemInfo) *float64 { return &r.Mapped }),
	memField("shmem", func(s *memRaw) *uint64 { return s.Shmem }, func(r *model.MemInfo) *float64 { return &r.Shmem }),
	memField("slab", func(s *memRaw) *uint64 { return s.Slab }, func(r *model.MemInfo) *float64 { return &r.Slab }),
	memField("sreclaimable", func(s *memRaw) *uint64 { return s.SReclaimable }, func(r *model.MemInfo) *float64 { return &r.SReclaimable }),
	memField("sunreclaim", func(s *memRaw) *uint64 { return s.SUnreclaim }, func(r *model.MemInfo) *float64 { return &r.SUnreclaim }),
	memField("kernelstack", func(s *memRaw) *uint64 { return s.KernelStack }, func(r *model.MemInfo) *float64 { return &r.KernelStack }),
	memField("pagetables", func(s *memRaw) *uint64 { return s.PageTables }, func(r *model.MemInfo) *float64 { return &r.PageTables }),
	memField("commitlimit", func(s *memRaw) *uint64 { return s.CommitLimit }, func(r *model.MemInfo) *float64 { return &r.CommitLimit }),
	memField("committed_as", func(s *memRaw) *uint64 { return s.CommittedAS }, func(r *model.MemInfo) *float64 { return &r.CommittedAS }),
	memField("hugepages_total", func(s *memRaw) *uint64 { return s.HugePagesTotal }, func(r *model.MemInfo) *float64 { return &r.HugePagesTotal }),
	memField("hugepages_free", func(s *memRaw) *uint64 { return s.HugePagesFree }, func(r *model.MemInfo) *float64 { return &r.HugePagesFree }),
}

var blockDeviceSet = instanceSet[diskRaw, model.BlockDeviceInfo]{
	domain:    model.DomainBlockDevice,
	withTotal: true,
	inTotal:   func(d *diskRaw) bool { return !d.Derived },
	name:      func(d *diskRaw) string { return d.Name },
	stamp: func(r *model.BlockDeviceInfo, at time.Time, instance string) {
		r.Timestamp, r.DeviceName = at, instance
	},
	table: []field[diskRaw, model.BlockDeviceInfo]{
		counter("reads_completed_success", func(d *diskRaw) uint64 { return d.ReadIOs }, func(r *model.BlockDeviceInfo) *float64 { return &r.ReadsCompletedSuccess }),
		counter("reads_merged", func(d *diskRaw) uint64 { return d.ReadMerges }, func(r *model.BlockDeviceInfo) *float64 { return &r.ReadsMerged }),
		counter("reads_sectors", func(d *diskRaw) uint64 { return d.ReadSectors }, func(r *model.BlockDeviceInfo) *float64 { return &r.ReadsBytes }).times(sectorBytes),
		counter("reads_time_spent_ms", func(d *diskRaw) uint64 { return d.ReadTicks }, func(r *model.BlockDeviceInfo) *float64 { return &r.ReadsTimeSpentMs }),
		counter("writes_completed_success", func(d *diskRaw) uint64 { return d.WriteIOs }, func(r *model.BlockDeviceInfo) *float64 { return &r.WritesCompletedSuccess }),
		counter("writes_merged", func(d *diskRaw) uint64 { return d.WriteMerges }, func(r *model.BlockDeviceInfo) *float64 { return &r.WritesMerged }),
		counter("writes_sectors", func(d *diskRaw) uint64 { return d.WriteSectors }, func(r *model.BlockDeviceInfo) *float64 { return &r.WritesBytes }).times(sectorBytes),
		counter("writes_time_spent_ms", func(d *diskRaw) uint64 { return d.WriteTicks }, func(r *model.BlockDeviceInfo) *float64 { return &r.WritesTimeSpentMs }),
		gauge("ios_in_progress", func(d *diskRaw) float64 { return float64(d.IOsInProgress) }, func(r *model.BlockDeviceInfo) *float64 { return &r.IOsInProgress }),
		counter("ios_time_spent_ms", func(d *diskRaw) uint64 { return d.IOsTotalTicks }, func(r *model.BlockDeviceInfo) *float64 { return &r.IOsTimeSpentMs }),
		counter("ios_weighted_time_spent_ms", func(d *diskRaw) uint64 { return d.WeightedIOTicks }, func(r *model.BlockDeviceInfo) *float64 { return &r.IOsWeightedTimeSpentMs }),
		optCounter("discards_completed_success", func(d *diskRaw) *uint64 { return d.DiscardIOs }, func(r *model.BlockDeviceInfo) *float64 { return &r.DiscardsCompletedSuccess }),
		optCounter("discards_merged", func(d *diskRaw) *uint64 { return d.DiscardMerges }, func(r *model.BlockDeviceInfo) *float64 { return &r.DiscardsMerged }),
		optCounter("discards_sectors", func(d *diskRaw) *uint64 { return d.DiscardSectors }, func(r *model.BlockDeviceInfo) *float64 { return &r.DiscardsBytes }).times(sectorBytes),
		optCounter("discards_time_spent_ms", func(d *diskRaw) *uint64 { return d.DiscardTicks }, func(r *model.BlockDeviceInfo) *float64 { return &r.DiscardsTimeSpentMs }),
		optCounter("flush_requests_completed_success", func(d *diskRaw) *uint64 { return d.FlushIOs }, func(r *model.BlockDeviceInfo) *float64 { return &r.FlushRequestsCompletedSuccess }),
		optCounter("flush_requests_time_spent_ms", func(d *diskRaw) *uint64 { return d.FlushTicks }, func(r *model.BlockDeviceInfo) *float64 { return &r.FlushRequestsTimeSpentMs }),
	},
}

var networkDeviceSet = instanceSet[netRaw, model.NetworkDeviceInfo]{
	domain:    model.DomainNetworkDevice,
	withTotal: true,
	name:      func(n *netRaw) string { return n.Name },
	stamp: func(r *model.NetworkDeviceInfo, at time.Time, instance string) {
		r.Timestamp, r.DeviceName = at, instance
	},
	table: []field[netRaw, model.NetworkDeviceInfo]{
		counter("receive_bytes", func(n *netRaw) uint64 { return n.RxBytes }, func(r *model.NetworkDeviceInfo) *float64 { return &r.ReceiveBytes }),
		counter("receive_packets", func(n *netRaw) uint64 { return n.RxPackets }, func(r *model.NetworkDeviceInfo) *float64 { return &r.ReceivePackets }),
		counter("receive_errors", func(n *netRaw) uint64 { return n.RxErrors }, func(r *model.NetworkDeviceInfo) *float64 { return &r.ReceiveErrors }),
		counter("receive_drop", func(n *netRaw) uint64 { return n.RxDropped }, func(r *model.NetworkDeviceInfo) *float64 { return &r.ReceiveDrop }),
		counter("receive_fifo", func(n *netRaw) uint64 { return n.RxFIFO }, func(r *model.NetworkDeviceInfo) *float64 { return &r.ReceiveFifo }),
		counter("receive_frame", func(n *netRaw) uint64 { return n.RxFrame }, func(r *model.NetworkDeviceInfo) *float64 { return &r.ReceiveFrame }),
		counter("receive_compressed", func(n *netRaw) uint64 { return n.RxCompressed }, func(r *model.NetworkDeviceInfo) *float64 { return &r.ReceiveCompressed }),
		counter("receive_multicast", func(n *netRaw) uint64 { return n.RxMulticast }, func(r *model.NetworkDeviceInfo) *float64 { return &r.ReceiveMulticast }),
		counter("transmit_bytes", func(n *netRaw) uint64 { return n.TxBytes }, func(r *model.NetworkDeviceInfo) *float64 { return &r.TransmitBytes }),
		counter("transmit_packets", func(n *netRaw) uint64 { return n.TxPackets }, func(r *model.NetworkDeviceInfo) *float64 { return &r.TransmitPackets }),
		counter("transmit_errors", func(n *netRaw) uint64 { return n.TxErrors }, func(r *model.NetworkDeviceInfo) *float64 { return &r.TransmitErrors }),
		counter("transmit_drop", func(n *netRaw) uint64 { return n.TxDropped }, func(r *model.NetworkDeviceInfo) *float64 { return &r.TransmitDrop }),
		counter("transmit_fifo", func(n *netRaw) uint64 { return n.TxFIFO }, func(r *model.NetworkDeviceInfo) *float64 { return &r.TransmitFifo }),
		counter("transmit_collisions", func(n *netRaw) uint64 { return n.TxCollisions }, func(r *model.NetworkDeviceInfo) *float64 { return &r.TransmitCollisions }),
		counter("transmit_carrier", func(n *netRaw) uint64 { return n.TxCarrier }, func(r *model.NetworkDeviceInfo) *float64 { return &r.TransmitCarrier }),
		counter("transmit_compressed", func(n *netRaw) uint64 { return n.TxCompressed }, func(r *model.NetworkDeviceInfo) *float64 { return &r.TransmitCompressed }),
	},
}

var loadavgTable = []field[loadRaw, model.LoadavgInfo]{
	gauge("load_1", func(s *loadRaw) float64 { return s.Load1 }, func(r *model.LoadavgInfo) *float64 { return &r.Load1 }),
	gauge("load_5", func(s *loadRaw) float64 { return s.Load5 }, func(r *model.LoadavgInfo) *float64 { return &r.Load5 }),
	gauge("load_15", func(s *loadRaw) float64 { return s.Load15 }, func(r *model.LoadavgInfo) *float64 { return &r.Load15 }),
	gauge("procs_running", func(s *loadRaw) float64 { return float64(s.ProcsRunning) }, func(r *model.LoadavgInfo) *float64 { return &r.ProcsRunning }),
	gauge("procs_blocked", func(s *loadRaw) float64 { return float64(s.ProcsBlocked) }, func(r *model.LoadavgInfo) *float64 { return &r.ProcsBlocked }),
}

// psi builds the four fields of one PSI line: averages as gauges, total as a counter.
func psi(prefix string, line func(*pressureRaw) *system.PSILine, dst func(*model.PressureInfo) (avg10, avg60, avg300, total *float64)) []field[pressureRaw, model.PressureInfo] {
	avg := func(pick func(*system.PSILine) float64) func(*pressureRaw) *float64 {
		return func(s *pressureRaw) *float64 {
			l := line(s)
			if l == nil {
				return nil
			}
			v := pick(l)
			return &v
		}
	}
	return []field[pressureRaw, model.PressureInfo]{
		optGauge(prefix+"_avg10", avg(func(l *system.PSILine) float64 { return l.Avg10 }), func(r *model.PressureInfo) *float64 { p, _, _, _ := dst(r); return p }),
		optGauge(prefix+"_avg60", avg(func(l *system.PSILine) float64 { return l.Avg60 }), func(r *model.PressureInfo) *float64 { _, p, _, _ := dst(r); return p }),
		optGauge(prefix+"_avg300", avg(func(l *system.PSILine) float64 { return l.Avg300 }), func(r *model.PressureInfo) *float64 { _, _, p, _ := dst(r); return p }),
		optCounter(prefix+"_total", func(s *pressureRaw) *uint64 {
			l := line(s)
			if l == nil {
				return nil
			}
			return &l.Total
		}, func(r *model.PressureInfo) *float64 { _, _, _, p := dst(r); return p }),
	}
}

var pressureTable = concat(
	psi("cpu_some", func(s *pressureRaw) *system.PSILine { return s.CPUSome }, func(r *model.PressureInfo) (a, b, c, d *float64) {
		return &r.CPUSomeAvg10, &r.CPUSomeAvg60, &r.CPUSomeAvg300, &r.CPUSomeTotal
	}),
	psi("cpu_full", func(s *pressureRaw) *system.PSILine { return s.CPUFull }, func(r *model.PressureInfo) (a, b, c, d *float64) {
		return &r.CPUFullAvg10, &r.CPUFullAvg60, &r.CPUFullAvg300, &r.CPUFullTotal
	}),
	psi("memory_some", func(s *pressureRaw) *system.PSILine { return s.MemorySome }, func(r *model.PressureInfo) (a, b, c, d *float64) {
		return &r.MemorySomeAvg10, &r.MemorySomeAvg60, &r.MemorySomeAvg300, &r.MemorySomeTotal
	}),
	psi("memory_full", func(s *pressureRaw) *system.PSILine { return s.MemoryFull }, func(r *model.PressureInfo) (a, b, c, d *float64) {
		return &r.MemoryFullAvg10, &r.MemoryFullAvg60, &r.MemoryFullAvg300, &r.MemoryFullTotal
	}),
	psi("io_some", func(s *pressureRaw) *system.PSILine { return s.IOSome }, func(r *model.PressureInfo) (a, b, c, d *float64) {
		return &r.IOSomeAvg10, &r.IOSomeAvg60, &r.IOSomeAvg300, &r.IOSomeTotal
	}),
	psi("io_full", func(s *pressureRaw) *system.PSILine { return s.IOFull }, func(r *model.PressureInfo) (a, b, c, d *float64) {
		return &r.IOFullAvg10, &r.IOFullAvg60, &r.IOFullAvg300, &r.IOFullTotal
	}),
)

func vmCounter(name string, dst func(*model.VmStatInfo) *float64) field[vmRaw, model.VmStatInfo] {
	return optCounter(name, func(s *vmRaw) *uint64 { return s.Get(name) }, dst)
}

func vmGauge(name string, dst func(*model.VmStatInfo) *float64) field[vmRaw, model.VmStatInfo] {
	return optGauge(name, func(s *vmRaw) *float64 { return u2f(s.Get(name)) }, dst)
}

var vmstatTable = []field[vmRaw, model.VmStatInfo]{
	vmCounter("pgpgin", func(r *model.VmStatInfo) *float64 { return &r.Pgpgin }),
	vmCounter("pgpgout", func(r *model.VmStatInfo) *float64 { return &r.Pgpgout }),
	vmCounter("pswpin", func(r *model.VmStatInfo) *float64 { return &r.Pswpin }),
	vmCounter("pswpout", func(r *model.VmStatInfo) *float64 { return &r.Pswpout }),
	vmCounter("pgfault", func(r *model.VmStatInfo) *float64 { return &r.Pgfault }),
	vmCounter("pgmajfault", func(r *model.VmStatInfo) *float64 { return &r.Pgmajfault }),
	vmCounter("pgfree", func(r *model.VmStatInfo) *float64 { return &r.Pgfree }),
	vmCounter("pgscan_kswapd", func(r *model.VmStatInfo) *float64 { return &r.PgscanKswapd }),
	vmCounter("pgscan_direct", func(r *model.VmStatInfo) *float64 { return &r.PgscanDirect }),
	vmCounter("pgsteal_kswapd", func(r *model.VmStatInfo) *float64 { return &r.PgstealKswapd }),
	vmCounter("pgsteal_direct", func(r *model.VmStatInfo) *float64 { return &r.PgstealDirect }),
	vmCounter("oom_kill", func(r *model.VmStatInfo) *float64 { return &r.OomKill }),
	vmGauge("nr_free_pages", func(r *model.VmStatInfo) *float64 { return &r.NrFreePages }),
	vmGauge("nr_dirty", func(r *model.VmStatInfo) *float64 { return &r.NrDirty }),
	vmGauge("nr_writeback", func(r *model.VmStatInfo) *float64 { return &r.NrWriteback }),
}

var xfsTable = []field[xfsRaw, model.XfsInfo]{
	counter("read_calls", func(s *xfsRaw) uint64 { return s.ReadCalls }, func(r *model.XfsInfo) *float64 { return &r.ReadCalls }),
	counter("write_calls", func(s *xfsRaw) uint64 { return s.WriteCalls }, func(r *model.XfsInfo) *float64 { return &r.WriteCalls }),
	counter("read_bytes", func(s *xfsRaw) uint64 { return s.ReadBytes }, func(r *model.XfsInfo) *float64 { return &r.ReadBytes }),
	counter("write_bytes", func(s *xfsRaw) uint64 { return s.WriteBytes }, func(r *model.XfsInfo) *float64 { return &r.WriteBytes }),
	counter("flush_bytes", func(s *xfsRaw) uint64 { return s.FlushBytes }, func(r *model.XfsInfo) *float64 { return &r.FlushBytes }),
	counter("extents_allocated", func(s *xfsRaw) uint64 { return s.ExtentsAllocated }, func(r *model.XfsInfo) *float64 { return &r.ExtentsAllocated }),
	counter("blocks_allocated", func(s *xfsRaw) uint64 { return s.BlocksAllocated }, func(r *model.XfsInfo) *float64 { return &r.BlocksAllocated }),
	counter("extents_freed", func(s *xfsRaw) uint64 { return s.ExtentsFreed }, func(r *model.XfsInfo) *float64 { return &r.ExtentsFreed }),
	counter("blocks_freed", func(s *xfsRaw) uint64 { return s.BlocksFreed }, func(r *model.XfsInfo) *float64 { return &r.BlocksFreed }),
	counter("dir_lookups", func(s *xfsRaw) uint64 { return s.DirLookups }, func(r *model.XfsInfo) *float64 { return &r.DirLookups }),
	counter("dir_creates", func(s *xfsRaw) uint64 { return s.DirCreates }, func(r *model.XfsInfo) *float64 { return &r.DirCreates }),
	counter("dir_removes", func(s *xfsRaw) uint64 { return s.DirRemoves }, func(r *model.XfsInfo) *float64 { return &r.DirRemoves }),
	counter("dir_getdents", func(s *xfsRaw) uint64 { return s.DirGetdents }, func(r *model.XfsInfo) *float64 { return &r.DirGetdents }),
	counter("trans_sync", func(s *xfsRaw) uint64 { return s.TransSync }, func(r *model.XfsInfo) *float64 { return &r.TransSync }),
	counter("trans_async", func(s *xfsRaw) uint64 { return s.TransAsync }, func(r *model.XfsInfo) *float64 { return &r.TransAsync }),
	counter("trans_empty", func(s *xfsRaw) uint64 { return s.TransEmpty }, func(r *model.XfsInfo) *float64 { return &r.TransEmpty }),
	counter("inode_attempts", func(s *xfsRaw) uint64 { return s.InodeAttempts }, func(r *model.XfsInfo) *float64 { return &r.InodeAttempts }),
	counter("inode_found", func(s *xfsRaw) uint64 { return s.InodeFound }, func(r *model.XfsInfo) *float64 { return &r.InodeFound }),
	counter("inode_missed", func(s *xfsRaw) uint64 { return s.InodeMissed }, func(r *model.XfsInfo) *float64 { return &r.InodeMissed }),
	counter("log_writes", func(s *xfsRaw) uint64 { return s.LogWrites }, func(r *model.XfsInfo) *float64 { return &r.LogWrites }),
	counter("log_blocks", func(s *xfsRaw) uint64 { return s.LogBlocks }, func(r *model.XfsInfo) *float64 { return &r.LogBlocks }),
	counter("log_force", func(s *xfsRaw) uint64 { return s.LogForce }, func(r *model.XfsInfo) *float64 { return &r.LogForce }),
}

func concat[T any](parts ...[]T) []T {
	var out []T
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
