package system

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks a domain the running kernel does not provide.
var ErrUnavailable = errors.New("feature unavailable")

// AcquireError wraps a failed snapshot read for one domain.
type AcquireError struct {
	Domain      string
	Unavailable bool
	Err         error
}

func (e *AcquireError) Error() string {
	if e.Unavailable {
		return fmt.Sprintf("acquire %s: %v: %v", e.Domain, ErrUnavailable, e.Err)
	}
	return fmt.Sprintf("acquire %s: %v", e.Domain, e.Err)
}

func (e *AcquireError) Unwrap() error {
	return e.Err
}

func (e *AcquireError) Is(target error) bool {
	return target == ErrUnavailable && e.Unavailable
}

// Source returns one raw snapshot per domain. Implementations are expected to be fast
// and synchronous.
type Source interface {
	CPU() (CPUSnapshot, error)
	Memory() (MemorySnapshot, error)
	BlockDevices() (BlockDeviceSnapshot, error)
	NetworkDevices() (NetworkDeviceSnapshot, error)
	Loadavg() (LoadavgSnapshot, error)
	Pressure() (PressureSnapshot, error)
	VmStat() (VmStatSnapshot, error)
	Xfs() (XfsSnapshot, error)
}
