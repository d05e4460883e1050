package model

import "time"

// CPUStat holds CPU time rates in CPU-seconds per second. Name is "all" for the
// aggregate line and "cpuN" for a logical CPU.
type CPUStat struct {
	Timestamp time.Time `json:"timestamp"`
	Name      string    `json:"name"`
	User      float64   `json:"user"`
	Nice      float64   `json:"nice"`
	System    float64   `json:"system"`
	Idle      float64   `json:"idle"`
	IOWait    float64   `json:"iowait"`
	IRQ       float64   `json:"irq"`
	SoftIRQ   float64   `json:"softirq"`
	Steal     float64   `json:"steal"`
	Guest     float64   `json:"guest"`
	GuestNice float64   `json:"guest_nice"`
}

// AllCPUs names the aggregate CPU instance.
const AllCPUs = "all"

func (c CPUStat) At() time.Time        { return c.Timestamp }
func (c CPUStat) InstanceName() string { return c.Name }

// Busy is the sum of all non-idle rates.
func (c CPUStat) Busy() float64 {
	return c.User + c.Nice + c.System + c.IRQ + c.SoftIRQ + c.Steal
}
