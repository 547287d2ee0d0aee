package prometheus

import (
	"time"

	"funds-transfer/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector implements MetricsCollector for Prometheus.
type PrometheusCollector struct {
	namespace string

	// Transfers
	transfers       *prometheus.CounterVec
	transferLatency *prometheus.HistogramVec
	compensations   *prometheus.CounterVec

	// Transaction locks
	lockAcquisitions *prometheus.CounterVec
	lockWait         *prometheus.HistogramVec

	// Circuit breaker
	circuitOpens *prometheus.CounterVec
	circuitState *prometheus.GaugeVec

	// Journal
	journalDepth   prometheus.Gauge
	journalDropped prometheus.Counter
	journalWrites  *prometheus.CounterVec
	journalLatency prometheus.Histogram
}

var _ metrics.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector creates a new Prometheus metrics collector.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	latencyBuckets := prometheus.ExponentialBuckets(0.0001, 2, 15) // 0.1ms to ~3s

	pc := &PrometheusCollector{
		namespace: namespace,
		transfers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transfers_total",
				Help:      "Total number of transfer attempts by outcome",
			},
			[]string{"outcome"},
		),
		transferLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transfer_duration_seconds",
				Help:      "Transfer latency including lock waits",
				Buckets:   latencyBuckets,
			},
			[]string{"outcome"},
		),
		compensations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compensations_total",
				Help:      "Total number of compensating reversals by status",
			},
			[]string{"status"},
		),
		lockAcquisitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "lock_acquisitions_total",
				Help:      "Total number of transaction lock attempts per account",
			},
			[]string{"account", "status"},
		),
		lockWait: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "lock_wait_seconds",
				Help:      "Time spent waiting for an account transaction lock",
				Buckets:   latencyBuckets,
			},
			[]string{"account"},
		),
		circuitOpens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_opens_total",
				Help:      "Total number of circuit breaker opens per account",
			},
			[]string{"account"},
		),
		circuitState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_state",
				Help:      "Current circuit breaker state per account (0=closed, 1=open, 2=half-open)",
			},
			[]string{"account"},
		),
		journalDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "journal_queue_depth",
				Help:      "Current number of entries waiting in the journal queue",
			},
		),
		journalDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "journal_dropped_total",
				Help:      "Total number of entries dropped by the journal",
			},
		),
		journalWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "journal_writes_total",
				Help:      "Total number of journal sink writes by status",
			},
			[]string{"status"},
		),
		journalLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "journal_write_duration_seconds",
				Help:      "Journal sink write latency",
				Buckets:   latencyBuckets,
			},
		),
	}

	return pc
}

// Register registers all metrics with the given Prometheus registry.
func (pc *PrometheusCollector) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		pc.transfers,
		pc.transferLatency,
		pc.compensations,
		pc.lockAcquisitions,
		pc.lockWait,
		pc.circuitOpens,
		pc.circuitState,
		pc.journalDepth,
		pc.journalDropped,
		pc.journalWrites,
		pc.journalLatency,
	}

	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}

	return nil
}

// RecordTransfer records one transfer outcome.
func (pc *PrometheusCollector) RecordTransfer(outcome string, duration time.Duration) {
	pc.transfers.WithLabelValues(outcome).Inc()
	pc.transferLatency.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordCompensation records a compensation attempt.
func (pc *PrometheusCollector) RecordCompensation(success bool) {
	pc.compensations.WithLabelValues(status(success)).Inc()
}

// RecordLockWait records a transaction lock acquisition attempt.
func (pc *PrometheusCollector) RecordLockWait(account string, acquired bool, wait time.Duration) {
	lockStatus := "acquired"
	if !acquired {
		lockStatus = "timeout"
	}
	pc.lockAcquisitions.WithLabelValues(account, lockStatus).Inc()
	pc.lockWait.WithLabelValues(account).Observe(wait.Seconds())
}

// RecordCircuitState records the current circuit breaker state.
func (pc *PrometheusCollector) RecordCircuitState(account string, state metrics.CircuitState) {
	pc.circuitState.WithLabelValues(account).Set(float64(state))
	if state == metrics.CircuitOpen {
		pc.circuitOpens.WithLabelValues(account).Inc()
	}
}

// RecordJournalDepth records the current journal queue depth.
func (pc *PrometheusCollector) RecordJournalDepth(depth int) {
	pc.journalDepth.Set(float64(depth))
}

// RecordJournalDropped records an entry dropped by the journal.
func (pc *PrometheusCollector) RecordJournalDropped() {
	pc.journalDropped.Inc()
}

// RecordJournalWrite records a journal sink write.
func (pc *PrometheusCollector) RecordJournalWrite(success bool, duration time.Duration) {
	pc.journalWrites.WithLabelValues(status(success)).Inc()
	pc.journalLatency.Observe(duration.Seconds())
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
