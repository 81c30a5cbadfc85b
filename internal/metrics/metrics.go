package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "swing_scanner"

// Metrics holds the scanner collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ScansTotal      *prometheus.CounterVec
	SymbolsTotal    *prometheus.CounterVec
	Stage2Total     *prometheus.CounterVec
	FetchFailures   prometheus.Counter
	FetchDuration   prometheus.Histogram
	ScanDuration    prometheus.Histogram
	LastScanSuccess prometheus.Gauge
}

// New registers the collectors on reg. Tests pass prometheus.NewRegistry().
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		ScansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "scans_total", Help: "Completed scans by result"},
			[]string{"result"},
		),
		SymbolsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "symbols_total", Help: "Per-symbol Stage-1 outcomes"},
			[]string{"outcome"},
		),
		Stage2Total: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "stage2_total", Help: "Stage-2 verdicts"},
			[]string{"verdict"},
		),
		FetchFailures: prometheus.NewCounter(
			prometheus.CounterOpts{Namespace: namespace, Name: "fetch_chunk_failures_total", Help: "Provider chunks that failed"},
		),
		FetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{Namespace: namespace, Name: "fetch_duration_seconds", Help: "Bar fetch phase duration", Buckets: prometheus.ExponentialBuckets(0.25, 2, 10)},
		),
		ScanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{Namespace: namespace, Name: "scan_duration_seconds", Help: "End-to-end scan duration", Buckets: prometheus.ExponentialBuckets(0.5, 2, 10)},
		),
		LastScanSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{Namespace: namespace, Name: "last_scan_success_timestamp_seconds", Help: "Unix time of the last successful scan"},
		),
	}
	reg.MustRegister(m.ScansTotal, m.SymbolsTotal, m.Stage2Total, m.FetchFailures, m.FetchDuration, m.ScanDuration, m.LastScanSuccess)
	return m
}

func (m *Metrics) ObserveFetch(d time.Duration, failedChunks int) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
	m.FetchFailures.Add(float64(failedChunks))
}

func (m *Metrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.SymbolsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveStage2(actionable, rejected int) {
	if m == nil {
		return
	}
	m.Stage2Total.WithLabelValues("actionable").Add(float64(actionable))
	m.Stage2Total.WithLabelValues("rejected").Add(float64(rejected))
}

// ObserveScan records a finished scan; err marks it failed.
func (m *Metrics) ObserveScan(d time.Duration, at time.Time, err error) {
	if m == nil {
		return
	}
	m.ScanDuration.Observe(d.Seconds())
	if err != nil {
		m.ScansTotal.WithLabelValues("failed").Inc()
		return
	}
	m.ScansTotal.WithLabelValues("ok").Inc()
	m.LastScanSuccess.Set(float64(at.Unix()))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr in the background. The caller shuts the
// returned server down.
func Serve(addr string, h http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
