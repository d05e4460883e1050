package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "procstat"

// Metrics is the agent's self-observability. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	cycles         prometheus.Counter
	cycleDuration  prometheus.Histogram
	domainOutcomes *prometheus.CounterVec
	ringLength     *prometheus.GaugeVec
	archiveWrites  prometheus.Counter
	archiveFailure prometheus.Counter
	archiveBytes   prometheus.Counter
	archiveRecords prometheus.Counter
	highTime       prometheus.Gauge
	pruned         prometheus.Counter
	loadedFiles    *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "cycles_total",
			Help:      "Number of completed sample cycles.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time spent in one sample cycle.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		domainOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sampler",
			Name:      "domain_outcomes_total",
			Help:      "Per-domain result of each sample cycle.",
		}, []string{"domain", "outcome"}),
		ringLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "history",
			Name:      "ring_length",
			Help:      "Records currently held per domain ring.",
		}, []string{"domain"}),
		archiveWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "writes_total",
			Help:      "Archive files written.",
		}),
		archiveFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "write_failures_total",
			Help:      "Archive writes that failed.",
		}),
		archiveBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "written_bytes_total",
			Help:      "Bytes written to archive files.",
		}),
		archiveRecords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "written_records_total",
			Help:      "Domain records written to archive files.",
		}),
		highTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "high_time_seconds",
			Help:      "Upper bound of the next bucket to archive, as a Unix timestamp.",
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "pruned_files_total",
			Help:      "Archive files removed by retention.",
		}),
		loadedFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "loaded_files_total",
			Help:      "Archive files processed at load time, by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.cycles,
		m.cycleDuration,
		m.domainOutcomes,
		m.ringLength,
		m.archiveWrites,
		m.archiveFailure,
		m.archiveBytes,
		m.archiveRecords,
		m.highTime,
		m.pruned,
		m.loadedFiles,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveCycle(d time.Duration) {
	if m == nil {
		return
	}
	m.cycles.Inc()
	m.cycleDuration.Observe(d.Seconds())
}

func (m *Metrics) DomainOutcome(domain, outcome string) {
	if m == nil {
		return
	}
	m.domainOutcomes.WithLabelValues(domain, outcome).Inc()
}

func (m *Metrics) SetRingLength(domain string, n int) {
	if m == nil {
		return
	}
	m.ringLength.WithLabelValues(domain).Set(float64(n))
}

func (m *Metrics) ArchiveWritten(bytes, records int) {
	if m == nil {
		return
	}
	m.archiveWrites.Inc()
	m.archiveBytes.Add(float64(bytes))
	m.archiveRecords.Add(float64(records))
}

func (m *Metrics) ArchiveFailed() {
	if m == nil {
		return
	}
	m.archiveFailure.Inc()
}

func (m *Metrics) SetHighTime(t time.Time) {
	if m == nil {
		return
	}
	m.highTime.Set(float64(t.Unix()))
}

func (m *Metrics) Pruned(n int) {
	if m == nil {
		return
	}
	m.pruned.Add(float64(n))
}

func (m *Metrics) FileLoaded(result string) {
	if m == nil {
		return
	}
	m.loadedFiles.WithLabelValues(result).Inc()
}
