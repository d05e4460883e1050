package collector

import (
	"errors"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"procstat-agent/internal/history"
	"procstat-agent/internal/model"
	"procstat-agent/internal/rate"
	"procstat-agent/internal/system"
	"procstat-agent/internal/telemetry"
)

// Outcome is the result of one domain within one cycle.
type Outcome string

const (
	OutcomePushed      Outcome = "pushed"
	OutcomeWarming     Outcome = "warming"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeFailed      Outcome = "failed"
)

type Options struct {
	BlockDeviceExclude   []string
	NetworkDeviceExclude []string
	// UnavailableRecheck is how long a domain reported as unavailable is skipped.
	UnavailableRecheck time.Duration
}

// Report summarizes one RunOnce call.
type Report struct {
	At       time.Time
	Outcomes map[model.Domain]Outcome
	Errors   map[model.Domain]error
}

// Err joins the per-domain failures, nil when every domain succeeded or was skipped.
func (r Report) Err() error {
	errs := make([]error, 0, len(r.Errors))
	for _, d := range model.Domains {
		if err, ok := r.Errors[d]; ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Cycle runs one sampling iteration: acquire, rate, assemble, push.
type Cycle struct {
	logger      *slog.Logger
	source      system.Source
	engine      *rate.Engine
	store       *history.Store
	metrics     *telemetry.Metrics
	opts        Options
	unavailable *cache.Cache
}

func NewCycle(logger *slog.Logger, source system.Source, engine *rate.Engine, store *history.Store, metrics *telemetry.Metrics, opts Options) *Cycle {
	if opts.UnavailableRecheck <= 0 {
		opts.UnavailableRecheck = 10 * time.Minute
	}
	return &Cycle{
		logger:      logger,
		source:      source,
		engine:      engine,
		store:       store,
		metrics:     metrics,
		opts:        opts,
		unavailable: cache.New(opts.UnavailableRecheck, 2*opts.UnavailableRecheck),
	}
}

// RunOnce processes every domain independently. now stamps snapshots that carry no
// timestamp of their own.
func (c *Cycle) RunOnce(now time.Time) Report {
	start := time.Now()
	report := Report{
		At:       now,
		Outcomes: make(map[model.Domain]Outcome, len(model.Domains)),
		Errors:   make(map[model.Domain]error),
	}

	for _, domain := range model.Domains {
		outcome, err := c.runDomain(domain, now)
		report.Outcomes[domain] = outcome
		if err != nil {
			report.Errors[domain] = err
		}
		c.metrics.DomainOutcome(string(domain), string(outcome))
	}

	for domain, n := range c.store.Lengths() {
		c.metrics.SetRingLength(string(domain), n)
	}
	c.metrics.ObserveCycle(time.Since(start))
	return report
}

func (c *Cycle) runDomain(domain model.Domain, now time.Time) (Outcome, error) {
	if _, skipped := c.unavailable.Get(string(domain)); skipped {
		return OutcomeUnavailable, nil
	}

	pushed, err := c.sample(domain, now)
	switch {
	case err == nil && pushed:
		return OutcomePushed, nil
	case err == nil:
		return OutcomeWarming, nil
	case errors.Is(err, system.ErrUnavailable):
		c.unavailable.SetDefault(string(domain), struct{}{})
		c.logger.Debug("domain unavailable", "domain", domain, "recheck", c.opts.UnavailableRecheck, "error", err)
		return OutcomeUnavailable, nil
	case errors.Is(err, rate.ErrMissingKey):
		c.logger.Error("domain record assembly failed", "domain", domain, "error", err)
		return OutcomeFailed, err
	default:
		c.logger.Warn("domain acquisition failed", "domain", domain, "error", err)
		return OutcomeFailed, err
	}
}

func (c *Cycle) sample(domain model.Domain, now time.Time) (bool, error) {
	switch domain {
	case model.DomainCPU:
		snap, err := c.source.CPU()
		if err != nil {
			return false, err
		}
		cores := make([]system.CPUCore, 0, len(snap.PerCPU)+1)
		cores = append(cores, system.CPUCore{Name: model.AllCPUs, Times: snap.All})
		cores = append(cores, snap.PerCPU...)
		records, err := cpuSet.build(c.engine, stampOr(snap.Timestamp, now), cores, nil)
		if err != nil {
			return false, err
		}
		c.store.CPU.PushAll(records)
		return len(records) > 0, nil

	case model.DomainMemory:
		snap, err := c.source.Memory()
		if err != nil {
			return false, err
		}
		rec, ok, err := single(c.engine, domain, stampOr(snap.Timestamp, now), &snap, memoryTable,
			func(r *model.MemInfo, at time.Time) { r.Timestamp = at })
		if ok {
			c.store.Memory.Push(rec)
		}
		return ok, err

	case model.DomainBlockDevice:
		snap, err := c.source.BlockDevices()
		if err != nil {
			return false, err
		}
		records, err := blockDeviceSet.build(c.engine, stampOr(snap.Timestamp, now), snap.Devices, c.opts.BlockDeviceExclude)
		if err != nil {
			return false, err
		}
		c.store.BlockDevices.PushAll(records)
		return len(records) > 0, nil

	case model.DomainNetworkDevice:
		snap, err := c.source.NetworkDevices()
		if err != nil {
			return false, err
		}
		records, err := networkDeviceSet.build(c.engine, stampOr(snap.Timestamp, now), snap.Devices, c.opts.NetworkDeviceExclude)
		if err != nil {
			return false, err
		}
		c.store.NetworkDevices.PushAll(records)
		return len(records) > 0, nil

	case model.DomainLoadavg:
		snap, err := c.source.Loadavg()
		if err != nil {
			return false, err
		}
		rec, ok, err := single(c.engine, domain, stampOr(snap.Timestamp, now), &snap, loadavgTable,
			func(r *model.LoadavgInfo, at time.Time) { r.Timestamp = at })
		if ok {
			c.store.Loadavg.Push(rec)
		}
		return ok, err

	case model.DomainPressure:
		snap, err := c.source.Pressure()
		if err != nil {
			return false, err
		}
		rec, ok, err := single(c.engine, domain, stampOr(snap.Timestamp, now), &snap, pressureTable,
			func(r *model.PressureInfo, at time.Time) { r.Timestamp = at })
		if ok {
			c.store.Pressure.Push(rec)
		}
		return ok, err

	case model.DomainVmStat:
		snap, err := c.source.VmStat()
		if err != nil {
			return false, err
		}
		rec, ok, err := single(c.engine, domain, stampOr(snap.Timestamp, now), &snap, vmstatTable,
			func(r *model.VmStatInfo, at time.Time) { r.Timestamp = at })
		if ok {
			c.store.VmStat.Push(rec)
		}
		return ok, err

	case model.DomainXfs:
		snap, err := c.source.Xfs()
		if err != nil {
			return false, err
		}
		rec, ok, err := single(c.engine, domain, stampOr(snap.Timestamp, now), &snap, xfsTable,
			func(r *model.XfsInfo, at time.Time) { r.Timestamp = at })
		if ok {
			c.store.Xfs.Push(rec)
		}
		return ok, err
	}
	return false, nil
}

func stampOr(at, fallback time.Time) time.Time {
	if at.IsZero() {
		return fallback.UTC()
	}
	return at.UTC()
}
