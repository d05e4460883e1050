package history

import (
	"time"

	"procstat-agent/internal/model"
)

// Summary is a compact view of the newest samples, for periodic log lines.
type Summary struct {
	At          time.Time
	CPUBusy     float64
	BusiestDisk string
	BusiestUtil float64
}

// Summarize reads the newest aggregate CPU record and the busiest real device of the
// newest block-device sample.
func (s *Store) Summarize() Summary {
	var out Summary

	cpu := s.CPU.Snapshot()
	for i := len(cpu) - 1; i >= 0; i-- {
		if cpu[i].Name == model.AllCPUs {
			out.At = cpu[i].Timestamp
			out.CPUBusy = cpu[i].Busy()
			break
		}
	}

	disks := s.BlockDevices.Snapshot()
	if n := len(disks); n > 0 {
		newest := disks[n-1].Timestamp
		for i := n - 1; i >= 0 && disks[i].Timestamp.Equal(newest); i-- {
			d := disks[i]
			if d.DeviceName == model.TotalInstance {
				continue
			}
			if u := d.UtilPercent(); out.BusiestDisk == "" || u > out.BusiestUtil {
				out.BusiestDisk, out.BusiestUtil = d.DeviceName, u
			}
		}
	}
	return out
}
