// Package metrics exposes a run's progress as Prometheus gauges and
// counters: cases completed, failures observed per candidate, and the
// in-flight worker count. It is self-instrumentation, not a Prometheus
// query client — there is nothing here to scrape elsewhere, only a
// local http.Server an operator can point their own Prometheus at while
// a long corpus is running.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config controls whether and where the metrics endpoint listens.
// Address is a plain "host:port" string. A zero-value Config is valid:
// Server returns nil for it, and Serve accepts that nil server.
type Config struct {
	Enabled bool
	Address string
}

// Recorder is the set of instruments a differential run updates as it
// progresses. All instruments are registered against a private registry
// (never the global default) so concurrent test runs and repeated
// Recorder construction within one process never collide.
type Recorder struct {
	registry               *prometheus.Registry
	casesTotal             prometheus.Counter
	candidateFailuresTotal *prometheus.CounterVec
	infraFailuresTotal     *prometheus.CounterVec
	lastRunDuration        prometheus.Gauge
	workersActive          prometheus.Gauge
	caseDuration           prometheus.Histogram
}

// CandidateSummary is one candidate's final classification, carried in a
// RunSummary. Neither PushSummary nor the end-of-run log line reads it.
type CandidateSummary struct {
	Name       string
	Status     string // "PASS", "UNKNOWN", or "FAIL"
	Mismatches int
}

// RunSummary aggregates one completed run for the logger and the metrics
// registry: total cases, each candidate's final verdict, infrastructure
// failures bucketed by kind ("origin" or "engine"), and wall-clock
// duration. Orchestrator.RunAll builds one and pushes it via
// Recorder.PushSummary once the corpus has fully drained.
type RunSummary struct {
	CasesTotal             int
	Candidates             []CandidateSummary
	InfrastructureFailures map[string]int
	Duration               time.Duration
}

// NewRecorder builds a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		casesTotal: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "nado_cases_total",
			Help: "Number of corpus cases evaluated so far.",
		}),
		candidateFailuresTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "nado_candidate_failures_total",
			Help: "Number of recorded candidate failures, by candidate and reason.",
		}, []string{"candidate", "reason"}),
		infraFailuresTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "nado_infrastructure_failures_total",
			Help: "Number of recorded infrastructure failures (origin or engine), by kind.",
		}, []string{"kind"}),
		lastRunDuration: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "nado_last_run_duration_seconds",
			Help: "Wall-clock duration of the most recently completed run.",
		}),
		workersActive: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "nado_workers_active",
			Help: "Number of worker goroutines currently evaluating a case.",
		}),
		caseDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "nado_case_duration_seconds",
			Help:    "Wall-clock time to evaluate one case against the origin and all candidates.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	return r
}

// CaseStarted marks one worker as busy; the returned func marks it idle
// again and records the elapsed duration. Call pattern:
//
//	done := rec.CaseStarted()
//	defer done()
func (r *Recorder) CaseStarted() func() {
	r.workersActive.Inc()
	start := time.Now()
	return func() {
		r.caseDuration.Observe(time.Since(start).Seconds())
		r.workersActive.Dec()
	}
}

// CaseCompleted increments the total case counter.
func (r *Recorder) CaseCompleted() {
	r.casesTotal.Inc()
}

// CandidateFailureRecorded increments nado_candidate_failures_total for
// one candidate's divergence from the origin.
func (r *Recorder) CandidateFailureRecorded(candidate, reason string) {
	r.candidateFailuresTotal.WithLabelValues(candidate, reason).Inc()
}

// InfrastructureFailureRecorded increments nado_infrastructure_failures_total
// for a failure attributed to the origin or the engine itself, rather
// than to any candidate. kind is "origin" or "engine".
func (r *Recorder) InfrastructureFailureRecorded(kind string) {
	r.infraFailuresTotal.WithLabelValues(kind).Inc()
}

// PushSummary records a completed run's aggregate counters. Per-case and
// per-failure counters are already current (they're incremented live as
// the run progresses); PushSummary's only additional work is setting the
// end-of-run duration gauge, which has no meaning until the run is over.
func (r *Recorder) PushSummary(s RunSummary) {
	r.lastRunDuration.Set(s.Duration.Seconds())
}

// Handler returns the promhttp handler serving this Recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Server builds an *http.Server bound to cfg.Address serving this
// Recorder's /metrics endpoint, or nil if cfg.Enabled is false.
func Server(cfg Config, rec *Recorder) *http.Server {
	if !cfg.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())
	return &http.Server{Addr: cfg.Address, Handler: mux}
}

// Serve starts srv and blocks until ctx is cancelled, at which point it
// shuts srv down gracefully. Intended to run in its own goroutine
// alongside the differential run.
func Serve(ctx context.Context, srv *http.Server) error {
	if srv == nil {
		<-ctx.Done()
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("metrics: serve %s: %w", srv.Addr, err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
