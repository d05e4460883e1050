package model

import "time"

// XfsInfo holds per-second rates of the host-wide XFS counters.
type XfsInfo struct {
	Timestamp        time.Time `json:"timestamp"`
	ReadCalls        float64   `json:"read_calls"`
	WriteCalls       float64   `json:"write_calls"`
	ReadBytes        float64   `json:"read_bytes"`
	WriteBytes       float64   `json:"write_bytes"`
	FlushBytes       float64   `json:"flush_bytes"`
	ExtentsAllocated float64   `json:"extents_allocated"`
	BlocksAllocated  float64   `json:"blocks_allocated"`
	ExtentsFreed     float64   `json:"extents_freed"`
	BlocksFreed      float64   `json:"blocks_freed"`
	DirLookups       float64   `json:"dir_lookups"`
	DirCreates       float64   `json:"dir_creates"`
	DirRemoves       float64   `json:"dir_removes"`
	DirGetdents      float64   `json:"dir_getdents"`
	TransSync        float64   `json:"trans_sync"`
	TransAsync       float64   `json:"trans_async"`
	TransEmpty       float64   `json:"trans_empty"`
	InodeAttempts    float64   `json:"inode_attempts"`
	InodeFound       float64   `json:"inode_found"`
	InodeMissed      float64   `json:"inode_missed"`
	LogWrites        float64   `json:"log_writes"`
	LogBlocks        float64   `json:"log_blocks"`
	LogForce         float64   `json:"log_force"`
}

func (x XfsInfo) At() time.Time { return x.Timestamp }
