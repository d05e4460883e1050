package model

import "time"

// PressureInfo carries PSI averages as reported and the stall totals as microseconds
// stalled per second. Full lines missing on the running kernel read as zero.
type PressureInfo struct {
	Timestamp        time.Time `json:"timestamp"`
	CPUSomeAvg10     float64   `json:"cpu_some_avg10"`
	CPUSomeAvg60     float64   `json:"cpu_some_avg60"`
	CPUSomeAvg300    float64   `json:"cpu_some_avg300"`
	CPUSomeTotal     float64   `json:"cpu_some_total"`
	CPUFullAvg10     float64   `json:"cpu_full_avg10"`
	CPUFullAvg60     float64   `json:"cpu_full_avg60"`
	CPUFullAvg300    float64   `json:"cpu_full_avg300"`
	CPUFullTotal     float64   `json:"cpu_full_total"`
	MemorySomeAvg10  float64   `json:"memory_some_avg10"`
	MemorySomeAvg60  float64   `json:"memory_some_avg60"`
	MemorySomeAvg300 float64   `json:"memory_some_avg300"`
	MemorySomeTotal  float64   `json:"memory_some_total"`
	MemoryFullAvg10  float64   `json:"memory_full_avg10"`
	MemoryFullAvg60  float64   `json:"memory_full_avg60"`
	MemoryFullAvg300 float64   `json:"memory_full_avg300"`
	MemoryFullTotal  float64   `json:"memory_full_total"`
	IOSomeAvg10      float64   `json:"io_some_avg10"`
	IOSomeAvg60      float64   `json:"io_some_avg60"`
	IOSomeAvg300     float64   `json:"io_some_avg300"`
	IOSomeTotal      float64   `json:"io_some_total"`
	IOFullAvg10      float64   `json:"io_full_avg10"`
	IOFullAvg60      float64   `json:"io_full_avg60"`
	IOFullAvg300     float64   `json:"io_full_avg300"`
	IOFullTotal      float64   `json:"io_full_total"`
}

func (p PressureInfo) At() time.Time { return p.Timestamp }
