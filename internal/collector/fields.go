package collector

import (
	"strings"
	"time"

	"procstat-agent/internal/model"
	"procstat-agent/internal/rate"
)

// field binds one raw value of snapshot S to one float64 of record R. Rated fields take
// the per-second value, the others the last absolute value.
type field[S, R any] struct {
	name    string
	rated   bool
	scale   float64
	observe func(e *rate.Engine, key rate.Key, at time.Time, s *S)
	dst     func(*R) *float64
}

func counter[S, R any](name string, get func(*S) uint64, dst func(*R) *float64) field[S, R] {
	return field[S, R]{
		name:  name,
		rated: true,
		scale: 1,
		dst:   dst,
		observe: func(e *rate.Engine, key rate.Key, at time.Time, s *S) {
			e.UpdateCounter(key, at, get(s))
		},
	}
}

func optCounter[S, R any](name string, get func(*S) *uint64, dst func(*R) *float64) field[S, R] {
	return field[S, R]{
		name:  name,
		rated: true,
		scale: 1,
		dst:   dst,
		observe: func(e *rate.Engine, key rate.Key, at time.Time, s *S) {
			e.UpdateOptionalCounter(key, at, get(s))
		},
	}
}

// floatCounter is a cumulative value already expressed as float, such as CPU seconds.
// Backwards steps (iowait does this) are resets.
func floatCounter[S, R any](name string, get func(*S) float64, dst func(*R) *float64) field[S, R] {
	return field[S, R]{
		name:  name,
		rated: true,
		scale: 1,
		dst:   dst,
		observe: func(e *rate.Engine, key rate.Key, at time.Time, s *S) {
			e.UpdateFloatCounter(key, at, get(s))
		},
	}
}

func gauge[S, R any](name string, get func(*S) float64, dst func(*R) *float64) field[S, R] {
	return field[S, R]{
		name:  name,
		scale: 1,
		dst:   dst,
		observe: func(e *rate.Engine, key rate.Key, at time.Time, s *S) {
			e.UpdateGauge(key, at, get(s))
		},
	}
}

func optGauge[S, R any](name string, get func(*S) *float64, dst func(*R) *float64) field[S, R] {
	return field[S, R]{
		name:  name,
		scale: 1,
		dst:   dst,
		observe: func(e *rate.Engine, key rate.Key, at time.Time, s *S) {
			e.UpdateOptionalGauge(key, at, get(s))
		},
	}
}

// times multiplies the assembled value, e.g. sectors to bytes.
func (f field[S, R]) times(k float64) field[S, R] {
	f.scale = k
	return f
}

func observe[S, R any](e *rate.Engine, domain model.Domain, instance string, at time.Time, s *S, table []field[S, R]) {
	for _, f := range table {
		f.observe(e, rate.Key{Domain: string(domain), Instance: instance, Field: f.name}, at, s)
	}
}

// assemble fills rec from the engine. ready reports whether the first field of the table
// has a baseline; a record is only historized when it does.
func assemble[S, R any](e *rate.Engine, domain model.Domain, instance string, rec *R, table []field[S, R]) (bool, error) {
	ready := false
	for i, f := range table {
		r, err := e.Lookup(rate.Key{Domain: string(domain), Instance: instance, Field: f.name})
		if err != nil {
			return false, err
		}
		if i == 0 {
			ready = r.HasBaseline
		}
		v := r.LastValue
		if f.rated {
			v = r.PerSecond
		}
		*f.dst(rec) = v * f.scale
	}
	return ready, nil
}

func addInto[S, R any](total, rec *R, table []field[S, R]) {
	for _, f := range table {
		*f.dst(total) += *f.dst(rec)
	}
}

// single runs the table for a domain with one record per cycle.
func single[S, R any](e *rate.Engine, domain model.Domain, at time.Time, s *S, table []field[S, R], stamp func(*R, time.Time)) (R, bool, error) {
	var rec R
	observe(e, domain, "", at, s, table)
	ready, err := assemble(e, domain, "", &rec, table)
	if err != nil || !ready {
		return rec, false, err
	}
	stamp(&rec, at)
	return rec, true, nil
}

// instanceSet describes a multi-instance domain.
type instanceSet[S, R any] struct {
	domain model.Domain
	table  []field[S, R]
	name   func(*S) string
	stamp  func(rec *R, at time.Time, instance string)
	// withTotal appends a TOTAL record summing every ready, non-excluded instance.
	withTotal bool
	// inTotal, when set, further restricts which instances are summed.
	inTotal func(*S) bool
}

func (set instanceSet[S, R]) build(e *rate.Engine, at time.Time, items []S, exclude []string) ([]R, error) {
	for i := range items {
		observe(e, set.domain, set.name(&items[i]), at, &items[i], set.table)
	}

	records := make([]R, 0, len(items)+1)
	var total R
	included := 0
	for i := range items {
		instance := set.name(&items[i])
		var rec R
		ready, err := assemble(e, set.domain, instance, &rec, set.table)
		if err != nil {
			return nil, err
		}
		if !ready {
			continue
		}
		set.stamp(&rec, at, instance)
		records = append(records, rec)
		if set.withTotal && !hasAnyPrefix(instance, exclude) && (set.inTotal == nil || set.inTotal(&items[i])) {
			addInto(&total, &rec, set.table)
			included++
		}
	}
	if included > 0 {
		set.stamp(&total, at, model.TotalInstance)
		records = append(records, total)
	}
	return records, nil
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func u2f(v *uint64) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}
