// Package metrics tracks dispatcher throughput, per-sink outcome counts,
// and per-sink latency percentiles, and exposes them both as in-process
// counters (for the periodic report.Reporter) and as
// Prometheus series (for external scraping).
package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lgreene/fanout-dispatcher/internal/model"
)

var (
	recordsProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dispatcher_records_processed_total",
		Help: "Total number of records pulled from the source queue.",
	})
	dispatchOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatcher_dispatch_outcomes_total",
			Help: "Total dispatch attempts by sink and outcome.",
		},
		[]string{"sink", "outcome"},
	)
	dispatchLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatcher_dispatch_latency_seconds",
			Help:    "Latency of a single sink dispatch attempt.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)
)

func init() {
	prometheus.MustRegister(recordsProcessedTotal)
	prometheus.MustRegister(dispatchOutcomesTotal)
	prometheus.MustRegister(dispatchLatencySeconds)
	prometheus.MustRegister(prometheus.NewBuildInfoCollector())
}

// Metrics aggregates dispatcher-wide counters for the lifetime of one
// run. All counters are safe for concurrent use from dispatch
// goroutines.
type Metrics struct {
	processed atomic.Int64
	start     time.Time

	mu        sync.Mutex
	success   map[model.SinkRole]*atomic.Int64
	fail      map[model.SinkRole]*atomic.Int64
	latencies map[model.SinkRole][]float64
}

// New returns a Metrics instance with its clock started now.
func New() *Metrics {
	return &Metrics{
		start:     time.Now(),
		success:   make(map[model.SinkRole]*atomic.Int64),
		fail:      make(map[model.SinkRole]*atomic.Int64),
		latencies: make(map[model.SinkRole][]float64),
	}
}

// RecordProcessed increments the count of records pulled off the queue.
func (m *Metrics) RecordProcessed() {
	m.processed.Add(1)
	recordsProcessedTotal.Inc()
}

// RecordOutcome records one dispatch attempt's success/failure and its
// latency, for a given sink role.
func (m *Metrics) RecordOutcome(role model.SinkRole, success bool, latency time.Duration) {
	counter := m.counterFor(role, success)
	counter.Add(1)

	outcome := "success"
	if !success {
		outcome = "failure"
	}
	dispatchOutcomesTotal.WithLabelValues(string(role), outcome).Inc()
	dispatchLatencySeconds.WithLabelValues(string(role)).Observe(latency.Seconds())

	m.mu.Lock()
	m.latencies[role] = append(m.latencies[role], float64(latency.Microseconds()))
	m.mu.Unlock()
}

func (m *Metrics) counterFor(role model.SinkRole, success bool) *atomic.Int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := m.fail
	if success {
		table = m.success
	}
	c, ok := table[role]
	if !ok {
		c = &atomic.Int64{}
		table[role] = c
	}
	return c
}

// Processed returns the total records pulled off the queue so far.
func (m *Metrics) Processed() int64 {
	return m.processed.Load()
}

// Outcomes returns the success and failure attempt counts for a role.
func (m *Metrics) Outcomes(role model.SinkRole) (success, failure int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.success[role]; ok {
		success = c.Load()
	}
	if c, ok := m.fail[role]; ok {
		failure = c.Load()
	}
	return
}

// Throughput returns records processed per second since New was called.
func (m *Metrics) Throughput() float64 {
	elapsed := time.Since(m.start).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(m.processed.Load()) / elapsed
}

// Percentiles reports p50/p95/p99 dispatch latency in microseconds for a
// sink role, using the samples observed so far. Returns all zeros if no
// samples have been recorded yet.
func (m *Metrics) Percentiles(role model.SinkRole) (p50, p95, p99 float64, err error) {
	m.mu.Lock()
	samples := make([]float64, len(m.latencies[role]))
	copy(samples, m.latencies[role])
	m.mu.Unlock()

	if len(samples) == 0 {
		return 0, 0, 0, nil
	}
	if p50, err = stats.Percentile(samples, 50); err != nil {
		return 0, 0, 0, err
	}
	if p95, err = stats.Percentile(samples, 95); err != nil {
		return 0, 0, 0, err
	}
	if p99, err = stats.Percentile(samples, 99); err != nil {
		return 0, 0, 0, err
	}
	return p50, p95, p99, nil
}
