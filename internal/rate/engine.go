package rate

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrMissingKey is matched by every MissingKeyError.
var ErrMissingKey = errors.New("rate: metric key not observed")

// Key identifies one raw counter or gauge. Instance is empty for singular domains.
type Key struct {
	Domain   string
	Instance string
	Field    string
}

func (k Key) String() string {
	if k.Instance == "" {
		return k.Domain + ":" + k.Field
	}
	return k.Domain + ":" + k.Instance + ":" + k.Field
}

// Record is the rate state kept per Key.
type Record struct {
	LastTimestamp time.Time
	LastValue     float64
	Delta         float64
	PerSecond     float64
	HasBaseline   bool
	// Reset is set when an unsigned counter went backwards on the latest update.
	Reset bool
}

type MissingKeyError struct {
	Key Key
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("rate: no sample recorded for %s (domain=%q instance=%q field=%q)",
		e.Key, e.Key.Domain, e.Key.Instance, e.Key.Field)
}

func (e *MissingKeyError) Is(target error) bool {
	return target == ErrMissingKey
}

// Engine converts absolute samples into per-second rates. Records are never removed.
type Engine struct {
	mu      sync.Mutex
	records map[Key]Record
}

func NewEngine() *Engine {
	return &Engine{records: make(map[Key]Record)}
}

// Update applies a float sample. Signed deltas are kept as they are.
func (e *Engine) Update(key Key, at time.Time, value float64) Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updateLocked(key, at, value, false)
}

// UpdateGauge is Update for native float gauges.
func (e *Engine) UpdateGauge(key Key, at time.Time, value float64) Record {
	return e.Update(key, at, value)
}

// UpdateCounter applies an unsigned counter sample. A value lower than the previous one
// is a counter reset: the sample becomes the new baseline and the rate is zero.
func (e *Engine) UpdateCounter(key Key, at time.Time, value uint64) Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updateLocked(key, at, float64(value), true)
}

// UpdateFloatCounter is UpdateCounter for cumulative values already kept as float, such
// as CPU seconds. A backwards step is a reset.
func (e *Engine) UpdateFloatCounter(key Key, at time.Time, value float64) Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.updateLocked(key, at, value, true)
}

// UpdateOptionalCounter treats a nil sample as zero.
func (e *Engine) UpdateOptionalCounter(key Key, at time.Time, value *uint64) Record {
	var v uint64
	if value != nil {
		v = *value
	}
	return e.UpdateCounter(key, at, v)
}

// UpdateOptionalGauge treats a nil sample as zero.
func (e *Engine) UpdateOptionalGauge(key Key, at time.Time, value *float64) Record {
	var v float64
	if value != nil {
		v = *value
	}
	return e.UpdateGauge(key, at, v)
}

// Lookup returns the current record for key or a *MissingKeyError.
func (e *Engine) Lookup(key Key) (Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.records[key]
	if !ok {
		return Record{}, &MissingKeyError{Key: key}
	}
	return rec, nil
}

func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.records)
}

func (e *Engine) updateLocked(key Key, at time.Time, value float64, monotonic bool) Record {
	prev, exists := e.records[key]
	if !exists {
		rec := Record{LastTimestamp: at, LastValue: value}
		e.records[key] = rec
		return rec
	}

	rec := Record{LastTimestamp: at, LastValue: value, HasBaseline: true}
	delta := value - prev.LastValue
	if monotonic && delta < 0 {
		rec.Reset = true
		e.records[key] = rec
		return rec
	}
	rec.Delta = delta
	rec.PerSecond = perSecond(delta, at.Sub(prev.LastTimestamp).Seconds())
	e.records[key] = rec
	return rec
}

func perSecond(delta, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	v := delta / seconds
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
