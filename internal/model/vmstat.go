package model

import "time"

// VmStatInfo holds /proc/vmstat event rates per second plus a few page gauges.
type VmStatInfo struct {
	Timestamp     time.Time `json:"timestamp"`
	Pgpgin        float64   `json:"pgpgin"`
	Pgpgout       float64   `json:"pgpgout"`
	Pswpin        float64   `json:"pswpin"`
	Pswpout       float64   `json:"pswpout"`
	Pgfault       float64   `json:"pgfault"`
	Pgmajfault    float64   `json:"pgmajfault"`
	Pgfree        float64   `json:"pgfree"`
	PgscanKswapd  float64   `json:"pgscan_kswapd"`
	PgscanDirect  float64   `json:"pgscan_direct"`
	PgstealKswapd float64   `json:"pgsteal_kswapd"`
	PgstealDirect float64   `json:"pgsteal_direct"`
	OomKill       float64   `json:"oom_kill"`
	NrFreePages   float64   `json:"nr_free_pages"`
	NrDirty       float64   `json:"nr_dirty"`
	NrWriteback   float64   `json:"nr_writeback"`
}

func (v VmStatInfo) At() time.Time { return v.Timestamp }
