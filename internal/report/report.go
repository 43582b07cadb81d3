// Package report implements the periodic metrics reporter and the
// optional Prometheus /metrics HTTP endpoint.
package report

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/willibrandon/mtlog/core"

	"github.com/lgreene/fanout-dispatcher/internal/metrics"
	"github.com/lgreene/fanout-dispatcher/internal/model"
)

// Reporter logs a periodic snapshot of throughput and per-sink
// outcomes/latency percentiles each tick: one throughput line, then one
// line per sink role.
type Reporter struct {
	metrics  *metrics.Metrics
	roles    []model.SinkRole
	interval time.Duration
	logger   core.Logger
}

// NewReporter builds a Reporter that logs a snapshot of m every interval
// for the given sink roles.
func NewReporter(m *metrics.Metrics, roles []model.SinkRole, interval time.Duration, logger core.Logger) *Reporter {
	return &Reporter{metrics: m, roles: roles, interval: interval, logger: logger}
}

// Run ticks until ctx is canceled. A non-positive interval disables
// reporting entirely.
func (r *Reporter) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.logSnapshot()
		}
	}
}

func (r *Reporter) logSnapshot() {
	r.logger.Information("dispatcher: processed={Processed} throughput={Throughput}/s",
		r.metrics.Processed(), r.metrics.Throughput())
	for _, role := range r.roles {
		success, failure := r.metrics.Outcomes(role)
		p50, p95, p99, err := r.metrics.Percentiles(role)
		if err != nil {
			r.logger.Warning("dispatcher: percentile computation failed for {Sink}: {Error}", role, err)
			continue
		}
		r.logger.Information(
			"dispatcher: sink={Sink} success={Success} fail={Fail} p50us={P50} p95us={P95} p99us={P99}",
			role, success, failure, p50, p95, p99,
		)
	}
}

// Server exposes /metrics for external Prometheus scraping. It is
// started optionally, alongside the in-process Reporter, when the
// configuration enables an HTTP metrics port.
type Server struct {
	httpServer *http.Server
	logger     core.Logger
}

// NewServer builds a metrics HTTP server bound to addr (e.g. ":9090").
func NewServer(addr string, logger core.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// Run blocks serving until ctx is canceled, at which point it shuts down
// gracefully within a fixed budget.
func (s *Server) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Warning("metrics server: shutdown error: {Error}", err)
		}
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Warning("metrics server: {Error}", err)
	}
}
