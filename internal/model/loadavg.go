package model

import "time"

type LoadavgInfo struct {
	Timestamp    time.Time `json:"timestamp"`
	Load1        float64   `json:"load_1"`
	Load5        float64   `json:"load_5"`
	Load15       float64   `json:"load_15"`
	ProcsRunning float64   `json:"procs_running"`
	ProcsBlocked float64   `json:"procs_blocked"`
}

func (l LoadavgInfo) At() time.Time { return l.Timestamp }
