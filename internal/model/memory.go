package model

import "time"

// MemInfo is a point-in-time /proc/meminfo view. Sizes are bytes, huge pages are counts.
type MemInfo struct {
	Timestamp      time.Time `json:"timestamp"`
	MemTotal       float64   `json:"memtotal"`
	MemFree        float64   `json:"memfree"`
	MemAvailable   float64   `json:"memavailable"`
	Buffers        float64   `json:"buffers"`
	Cached         float64   `json:"cached"`
	SwapCached     float64   `json:"swapcached"`
	Active         float64   `json:"active"`
	Inactive       float64   `json:"inactive"`
	ActiveAnon     float64   `json:"active_anon"`
	InactiveAnon   float64   `json:"inactive_anon"`
	ActiveFile     float64   `json:"active_file"`
	InactiveFile   float64   `json:"inactive_file"`
	SwapTotal      float64   `json:"swaptotal"`
	SwapFree       float64   `json:"swapfree"`
	Dirty          float64   `json:"dirty"`
	Writeback      float64   `json:"writeback"`
	AnonPages      float64   `json:"anonpages"`
	Mapped         float64   `json:"mapped"`
	Shmem          float64   `json:"shmem"`
	Slab           float64   `json:"slab"`
	SReclaimable   float64   `json:"sreclaimable"`
	SUnreclaim     float64   `json:"sunreclaim"`
	KernelStack    float64   `json:"kernelstack"`
	PageTables     float64   `json:"pagetables"`
	CommitLimit    float64   `json:"commitlimit"`
	CommittedAS    float64   `json:"committed_as"`
	HugePagesTotal float64   `json:"hugepages_total"`
	HugePagesFree  float64   `json:"hugepages_free"`
}

func (m MemInfo) At() time.Time { return m.Timestamp }

func (m MemInfo) Used() float64 {
	if m.MemAvailable > 0 && m.MemAvailable <= m.MemTotal {
		return m.MemTotal - m.MemAvailable
	}
	used := m.MemTotal - m.MemFree - m.Buffers - m.Cached
	if used < 0 {
		return 0
	}
	return used
}
