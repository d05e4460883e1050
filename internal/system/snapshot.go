package system

import "time"

// CPUTimes are cumulative CPU seconds as read from /proc/stat.
type CPUTimes struct {
	User      float64
	Nice      float64
	System    float64
	Idle      float64
	IOWait    float64
	IRQ       float64
	SoftIRQ   float64
	Steal     float64
	Guest     float64
	GuestNice float64
}

type CPUCore struct {
	Name  string
	Times CPUTimes
}

type CPUSnapshot struct {
	Timestamp time.Time
	All       CPUTimes
	PerCPU    []CPUCore
}

// MemorySnapshot holds /proc/meminfo values in bytes (huge pages as counts). Lines the
// kernel does not print stay nil.
type MemorySnapshot struct {
	Timestamp      time.Time
	MemTotal       *uint64
	MemFree        *uint64
	MemAvailable   *uint64
	Buffers        *uint64
	Cached         *uint64
	SwapCached     *uint64
	Active         *uint64
	Inactive       *uint64
	ActiveAnon     *uint64
	InactiveAnon   *uint64
	ActiveFile     *uint64
	InactiveFile   *uint64
	SwapTotal      *uint64
	SwapFree       *uint64
	Dirty          *uint64
	Writeback      *uint64
	AnonPages      *uint64
	Mapped         *uint64
	Shmem          *uint64
	Slab           *uint64
	SReclaimable   *uint64
	SUnreclaim     *uint64
	KernelStack    *uint64
	PageTables     *uint64
	CommitLimit    *uint64
	CommittedAS    *uint64
	HugePagesTotal *uint64
	HugePagesFree  *uint64
}

// BlockDeviceCounters mirrors one /proc/diskstats line. Discard and flush counters are
// nil on kernels that do not report them. Derived marks partitions and stacked devices
// (dm, md) whose I/O is already counted on the disks beneath them.
type BlockDeviceCounters struct {
	Name            string
	Derived         bool
	ReadIOs         uint64
	ReadMerges      uint64
	ReadSectors     uint64
	ReadTicks       uint64
	WriteIOs        uint64
	WriteMerges     uint64
	WriteSectors    uint64
	WriteTicks      uint64
	IOsInProgress   uint64
	IOsTotalTicks   uint64
	WeightedIOTicks uint64
	DiscardIOs      *uint64
	DiscardMerges   *uint64
	DiscardSectors  *uint64
	DiscardTicks    *uint64
	FlushIOs        *uint64
	FlushTicks      *uint64
}

type BlockDeviceSnapshot struct {
	Timestamp time.Time
	Devices   []BlockDeviceCounters
}

type NetworkDeviceCounters struct {
	Name         string
	RxBytes      uint64
	RxPackets    uint64
	RxErrors     uint64
	RxDropped    uint64
	RxFIFO       uint64
	RxFrame      uint64
	RxCompressed uint64
	RxMulticast  uint64
	TxBytes      uint64
	TxPackets    uint64
	TxErrors     uint64
	TxDropped    uint64
	TxFIFO       uint64
	TxCollisions uint64
	TxCarrier    uint64
	TxCompressed uint64
}

type NetworkDeviceSnapshot struct {
	Timestamp time.Time
	Devices   []NetworkDeviceCounters
}

type LoadavgSnapshot struct {
	Timestamp    time.Time
	Load1        float64
	Load5        float64
	Load15       float64
	ProcsRunning uint64
	ProcsBlocked uint64
}

type PSILine struct {
	Avg10  float64
	Avg60  float64
	Avg300 float64
	Total  uint64
}

// PressureSnapshot has one some/full pair per resource; missing lines stay nil.
type PressureSnapshot struct {
	Timestamp  time.Time
	CPUSome    *PSILine
	CPUFull    *PSILine
	MemorySome *PSILine
	MemoryFull *PSILine
	IOSome     *PSILine
	IOFull     *PSILine
}

// VmStatSnapshot keeps every /proc/vmstat counter by name.
type VmStatSnapshot struct {
	Timestamp time.Time
	Counters  map[string]uint64
}

// Get returns the named counter, or nil if the kernel does not report it.
func (v VmStatSnapshot) Get(name string) *uint64 {
	value, ok := v.Counters[name]
	if !ok {
		return nil
	}
	return &value
}

type XfsSnapshot struct {
	Timestamp        time.Time
	ReadCalls        uint64
	WriteCalls       uint64
	ReadBytes        uint64
	WriteBytes       uint64
	FlushBytes       uint64
	ExtentsAllocated uint64
	BlocksAllocated  uint64
	ExtentsFreed     uint64
	BlocksFreed      uint64
	DirLookups       uint64
	DirCreates       uint64
	DirRemoves       uint64
	DirGetdents      uint64
	TransSync        uint64
	TransAsync       uint64
	TransEmpty       uint64
	InodeAttempts    uint64
	InodeFound       uint64
	InodeMissed      uint64
	LogWrites        uint64
	LogBlocks        uint64
	LogForce         uint64
}
