package model

// ArchiveTransit is the on-disk archive body: one array per domain holding the records
// of a single (low, high] bucket.
type ArchiveTransit struct {
	CPU            []CPUStat           `json:"cpu"`
	Memory         []MemInfo           `json:"memory"`
	BlockDevices   []BlockDeviceInfo   `json:"blockdevices"`
	NetworkDevices []NetworkDeviceInfo `json:"networkdevices"`
	Loadavg        []LoadavgInfo       `json:"loadavg"`
	Pressure       []PressureInfo      `json:"pressure"`
	VmStat         []VmStatInfo        `json:"vmstat"`
	Xfs            []XfsInfo           `json:"xfs"`
}

// Counts returns the number of records per domain.
func (t ArchiveTransit) Counts() map[Domain]int {
	return map[Domain]int{
		DomainCPU:           len(t.CPU),
		DomainMemory:        len(t.Memory),
		DomainBlockDevice:   len(t.BlockDevices),
		DomainNetworkDevice: len(t.NetworkDevices),
		DomainLoadavg:       len(t.Loadavg),
		DomainPressure:      len(t.Pressure),
		DomainVmStat:        len(t.VmStat),
		DomainXfs:           len(t.Xfs),
	}
}

// MissingDomains lists the domains whose array is absent (or null). Archives always
// carry every array, empty buckets included.
func (t ArchiveTransit) MissingDomains() []Domain {
	present := map[Domain]bool{
		DomainCPU:           t.CPU != nil,
		DomainMemory:        t.Memory != nil,
		DomainBlockDevice:   t.BlockDevices != nil,
		DomainNetworkDevice: t.NetworkDevices != nil,
		DomainLoadavg:       t.Loadavg != nil,
		DomainPressure:      t.Pressure != nil,
		DomainVmStat:        t.VmStat != nil,
		DomainXfs:           t.Xfs != nil,
	}
	var missing []Domain
	for _, d := range Domains {
		if !present[d] {
			missing = append(missing, d)
		}
	}
	return missing
}

func (t ArchiveTransit) Len() int {
	n := 0
	for _, c := range t.Counts() {
		n += c
	}
	return n
}
