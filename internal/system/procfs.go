package system

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/procfs"
	"github.com/prometheus/procfs/blockdevice"
	"github.com/prometheus/procfs/xfs"
)

// Scanned field counts of a /proc/diskstats line, major/minor/name included.
const (
	diskstatsWithDiscard = 18
	diskstatsWithFlush   = 20
)

// ProcSource reads raw snapshots from procfs and sysfs mounts.
type ProcSource struct {
	procPath string
	sysPath  string
	proc     procfs.FS
	block    blockdevice.FS
	xfs      xfs.FS
	now      func() time.Time
}

func NewProcSource(procPath, sysPath string) (*ProcSource, error) {
	proc, err := procfs.NewFS(procPath)
	if err != nil {
		return nil, fmt.Errorf("open procfs %s: %w", procPath, err)
	}
	block, err := blockdevice.NewFS(procPath, sysPath)
	if err != nil {
		return nil, fmt.Errorf("open blockdevice fs: %w", err)
	}
	xfsFS, err := xfs.NewFS(procPath, sysPath)
	if err != nil {
		return nil, fmt.Errorf("open xfs fs: %w", err)
	}
	return &ProcSource{
		procPath: procPath,
		sysPath:  sysPath,
		proc:     proc,
		block:    block,
		xfs:      xfsFS,
		now:      time.Now,
	}, nil
}

func (s *ProcSource) CPU() (CPUSnapshot, error) {
	at := s.now().UTC()
	stat, err := s.proc.Stat()
	if err != nil {
		return CPUSnapshot{}, acquireError("cpu", err)
	}

	type indexed struct {
		id    int64
		times CPUTimes
	}
	cores := make([]indexed, 0, len(stat.CPU))
	for id, cpu := range stat.CPU {
		cores = append(cores, indexed{id: int64(id), times: cpuTimes(cpu)})
	}
	sort.Slice(cores, func(i, j int) bool { return cores[i].id < cores[j].id })

	out := CPUSnapshot{Timestamp: at, All: cpuTimes(stat.CPUTotal), PerCPU: make([]CPUCore, 0, len(cores))}
	for _, core := range cores {
		out.PerCPU = append(out.PerCPU, CPUCore{Name: "cpu" + strconv.FormatInt(core.id, 10), Times: core.times})
	}
	return out, nil
}

func cpuTimes(c procfs.CPUStat) CPUTimes {
	return CPUTimes{
		User:      c.User,
		Nice:      c.Nice,
		System:    c.System,
		Idle:      c.Idle,
		IOWait:    c.Iowait,
		IRQ:       c.IRQ,
		SoftIRQ:   c.SoftIRQ,
		Steal:     c.Steal,
		Guest:     c.Guest,
		GuestNice: c.GuestNice,
	}
}

func (s *ProcSource) Memory() (MemorySnapshot, error) {
	at := s.now().UTC()
	mi, err := s.proc.Meminfo()
	if err != nil {
		return MemorySnapshot{}, acquireError("memory", err)
	}
	return MemorySnapshot{
		Timestamp:      at,
		MemTotal:       kib(mi.MemTotal),
		MemFree:        kib(mi.MemFree),
		MemAvailable:   kib(mi.MemAvailable),
		Buffers:        kib(mi.Buffers),
		Cached:         kib(mi.Cached),
		SwapCached:     kib(mi.SwapCached),
		Active:         kib(mi.Active),
		Inactive:       kib(mi.Inactive),
		ActiveAnon:     kib(mi.ActiveAnon),
		InactiveAnon:   kib(mi.InactiveAnon),
		ActiveFile:     kib(mi.ActiveFile),
		InactiveFile:   kib(mi.InactiveFile),
		SwapTotal:      kib(mi.SwapTotal),
		SwapFree:       kib(mi.SwapFree),
		Dirty:          kib(mi.Dirty),
		Writeback:      kib(mi.Writeback),
		AnonPages:      kib(mi.AnonPages),
		Mapped:         kib(mi.Mapped),
		Shmem:          kib(mi.Shmem),
		Slab:           kib(mi.Slab),
		SReclaimable:   kib(mi.SReclaimable),
		SUnreclaim:     kib(mi.SUnreclaim),
		KernelStack:    kib(mi.KernelStack),
		PageTables:     kib(mi.PageTables),
		CommitLimit:    kib(mi.CommitLimit),
		CommittedAS:    kib(mi.CommittedAS),
		HugePagesTotal: mi.HugePagesTotal,
		HugePagesFree:  mi.HugePagesFree,
	}, nil
}

func kib(v *uint64) *uint64 {
	if v == nil {
		return nil
	}
	b := *v * 1024
	return &b
}

func (s *ProcSource) BlockDevices() (BlockDeviceSnapshot, error) {
	at := s.now().UTC()
	stats, err := s.block.ProcDiskstats()
	if err != nil {
		return BlockDeviceSnapshot{}, acquireError("blockdevice", err)
	}
	whole := s.wholeDisks()
	out := BlockDeviceSnapshot{Timestamp: at, Devices: make([]BlockDeviceCounters, 0, len(stats))}
	for _, d := range stats {
		dev := BlockDeviceCounters{
			Name:            d.DeviceName,
			Derived:         whole != nil && !whole[d.DeviceName],
			ReadIOs:         d.ReadIOs,
			ReadMerges:      d.ReadMerges,
			ReadSectors:     d.ReadSectors,
			ReadTicks:       d.ReadTicks,
			WriteIOs:        d.WriteIOs,
			WriteMerges:     d.WriteMerges,
			WriteSectors:    d.WriteSectors,
			WriteTicks:      d.WriteTicks,
			IOsInProgress:   d.IOsInProgress,
			IOsTotalTicks:   d.IOsTotalTicks,
			WeightedIOTicks: d.WeightedIOTicks,
		}
		if d.IoStatsCount >= diskstatsWithDiscard {
			dev.DiscardIOs = ptr(d.DiscardIOs)
			dev.DiscardMerges = ptr(d.DiscardMerges)
			dev.DiscardSectors = ptr(d.DiscardSectors)
			dev.DiscardTicks = ptr(d.DiscardTicks)
		}
		if d.IoStatsCount >= diskstatsWithFlush {
			dev.FlushIOs = ptr(d.FlushRequestsCompleted)
			dev.FlushTicks = ptr(d.TimeSpentFlushing)
		}
		out.Devices = append(out.Devices, dev)
	}
	sort.Slice(out.Devices, func(i, j int) bool { return out.Devices[i].Name < out.Devices[j].Name })
	return out, nil
}

// wholeDisks lists the /sys/block entries that sit directly on hardware: partitions have
// no entry there, dm and md devices have holders in slaves/. nil when sysfs is unreadable.
func (s *ProcSource) wholeDisks() map[string]bool {
	names, err := s.block.SysBlockDevices()
	if err != nil {
		return nil
	}
	whole := make(map[string]bool, len(names))
	for _, name := range names {
		slaves, err := os.ReadDir(filepath.Join(s.sysPath, "block", name, "slaves"))
		if err == nil && len(slaves) > 0 {
			continue
		}
		whole[name] = true
	}
	return whole
}

func (s *ProcSource) NetworkDevices() (NetworkDeviceSnapshot, error) {
	at := s.now().UTC()
	netDev, err := s.proc.NetDev()
	if err != nil {
		return NetworkDeviceSnapshot{}, acquireError("networkdevice", err)
	}
	out := NetworkDeviceSnapshot{Timestamp: at, Devices: make([]NetworkDeviceCounters, 0, len(netDev))}
	for name, l := range netDev {
		out.Devices = append(out.Devices, NetworkDeviceCounters{
			Name:         name,
			RxBytes:      l.RxBytes,
			RxPackets:    l.RxPackets,
			RxErrors:     l.RxErrors,
			RxDropped:    l.RxDropped,
			RxFIFO:       l.RxFIFO,
			RxFrame:      l.RxFrame,
			RxCompressed: l.RxCompressed,
			RxMulticast:  l.RxMulticast,
			TxBytes:      l.TxBytes,
			TxPackets:    l.TxPackets,
			TxErrors:     l.TxErrors,
			TxDropped:    l.TxDropped,
			TxFIFO:       l.TxFIFO,
			TxCollisions: l.TxCollisions,
			TxCarrier:    l.TxCarrier,
			TxCompressed: l.TxCompressed,
		})
	}
	sort.Slice(out.Devices, func(i, j int) bool { return out.Devices[i].Name < out.Devices[j].Name })
	return out, nil
}

func (s *ProcSource) Loadavg() (LoadavgSnapshot, error) {
	at := s.now().UTC()
	load, err := s.proc.LoadAvg()
	if err != nil {
		return LoadavgSnapshot{}, acquireError("loadavg", err)
	}
	out := LoadavgSnapshot{Timestamp: at, Load1: load.Load1, Load5: load.Load5, Load15: load.Load15}
	if stat, statErr := s.proc.Stat(); statErr == nil {
		out.ProcsRunning = stat.ProcessesRunning
		out.ProcsBlocked = stat.ProcessesBlocked
	}
	return out, nil
}

func (s *ProcSource) Pressure() (PressureSnapshot, error) {
	at := s.now().UTC()
	out := PressureSnapshot{Timestamp: at}
	for _, resource := range []string{"cpu", "memory", "io"} {
		st, err := s.proc.PSIStatsForResource(resource)
		if err != nil {
			return PressureSnapshot{}, acquireError("pressure", err)
		}
		some, full := psiLine(st.Some), psiLine(st.Full)
		switch resource {
		case "cpu":
			out.CPUSome, out.CPUFull = some, full
		case "memory":
			out.MemorySome, out.MemoryFull = some, full
		case "io":
			out.IOSome, out.IOFull = some, full
		}
	}
	return out, nil
}

func psiLine(l *procfs.PSILine) *PSILine {
	if l == nil {
		return nil
	}
	return &PSILine{Avg10: l.Avg10, Avg60: l.Avg60, Avg300: l.Avg300, Total: l.Total}
}

func (s *ProcSource) VmStat() (VmStatSnapshot, error) {
	at := s.now().UTC()
	counters, err := readVMStat(filepath.Join(s.procPath, "vmstat"))
	if err != nil {
		return VmStatSnapshot{}, acquireError("vmstat", err)
	}
	return VmStatSnapshot{Timestamp: at, Counters: counters}, nil
}

func readVMStat(path string) (map[string]uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]uint64, 200)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) != 2 {
			continue
		}
		v, parseErr := strconv.ParseUint(fields[1], 10, 64)
		if parseErr != nil {
			continue
		}
		out[fields[0]] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}
	return out, nil
}

func (s *ProcSource) Xfs() (XfsSnapshot, error) {
	at := s.now().UTC()
	st, err := s.xfs.ProcStat()
	if err != nil {
		return XfsSnapshot{}, acquireError("xfs", err)
	}
	return XfsSnapshot{
		Timestamp:        at,
		ReadCalls:        uint64(st.ReadWrite.Read),
		WriteCalls:       uint64(st.ReadWrite.Write),
		ReadBytes:        st.ExtendedPrecision.ReadBytes,
		WriteBytes:       st.ExtendedPrecision.WriteBytes,
		FlushBytes:       st.ExtendedPrecision.FlushBytes,
		ExtentsAllocated: uint64(st.ExtentAllocation.ExtentsAllocated),
		BlocksAllocated:  uint64(st.ExtentAllocation.BlocksAllocated),
		ExtentsFreed:     uint64(st.ExtentAllocation.ExtentsFreed),
		BlocksFreed:      uint64(st.ExtentAllocation.BlocksFreed),
		DirLookups:       uint64(st.DirectoryOperation.Lookups),
		DirCreates:       uint64(st.DirectoryOperation.Creates),
		DirRemoves:       uint64(st.DirectoryOperation.Removes),
		DirGetdents:      uint64(st.DirectoryOperation.Getdents),
		TransSync:        uint64(st.Transaction.Sync),
		TransAsync:       uint64(st.Transaction.Async),
		TransEmpty:       uint64(st.Transaction.Empty),
		InodeAttempts:    uint64(st.InodeOperation.Attempts),
		InodeFound:       uint64(st.InodeOperation.Found),
		InodeMissed:      uint64(st.InodeOperation.Missed),
		LogWrites:        uint64(st.LogOperation.Writes),
		LogBlocks:        uint64(st.LogOperation.Blocks),
		LogForce:         uint64(st.LogOperation.Force),
	}, nil
}

// acquireError tags kernel-absent files as unavailable rather than transient.
func acquireError(domain string, err error) error {
	return &AcquireError{
		Domain:      domain,
		Unavailable: errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.EOPNOTSUPP),
		Err:         err,
	}
}

func ptr(v uint64) *uint64 {
	return &v
}
