package model

import "time"

// BlockDeviceInfo holds per-second /proc/diskstats rates for one device, or for the
// TOTAL instance. IOsInProgress is an absolute queue depth.
type BlockDeviceInfo struct {
	Timestamp                     time.Time `json:"timestamp"`
	DeviceName                    string    `json:"device_name"`
	ReadsCompletedSuccess         float64   `json:"reads_completed_success"`
	ReadsMerged                   float64   `json:"reads_merged"`
	ReadsBytes                    float64   `json:"reads_bytes"`
	ReadsTimeSpentMs              float64   `json:"reads_time_spent_ms"`
	WritesCompletedSuccess        float64   `json:"writes_completed_success"`
	WritesMerged                  float64   `json:"writes_merged"`
	WritesBytes                   float64   `json:"writes_bytes"`
	WritesTimeSpentMs             float64   `json:"writes_time_spent_ms"`
	IOsInProgress                 float64   `json:"ios_in_progress"`
	IOsTimeSpentMs                float64   `json:"ios_time_spent_ms"`
	IOsWeightedTimeSpentMs        float64   `json:"ios_weighted_time_spent_ms"`
	DiscardsCompletedSuccess      float64   `json:"discards_completed_success"`
	DiscardsMerged                float64   `json:"discards_merged"`
	DiscardsBytes                 float64   `json:"discards_bytes"`
	DiscardsTimeSpentMs           float64   `json:"discards_time_spent_ms"`
	FlushRequestsCompletedSuccess float64   `json:"flush_requests_completed_success"`
	FlushRequestsTimeSpentMs      float64   `json:"flush_requests_time_spent_ms"`
}

func (b BlockDeviceInfo) At() time.Time        { return b.Timestamp }
func (b BlockDeviceInfo) InstanceName() string { return b.DeviceName }

// UtilPercent is the share of wall time the device had I/O in flight.
func (b BlockDeviceInfo) UtilPercent() float64 {
	util := b.IOsTimeSpentMs / 10
	if util > 100 {
		return 100
	}
	if util < 0 {
		return 0
	}
	return util
}
