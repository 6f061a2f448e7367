// Package metrics exposes pipeline metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/peterhaasme/time-portfolio/internal/app/port"
)

const defaultNamespace = "time_portfolio"

// Prometheus implements port.Metrics.
type Prometheus struct {
	registry *prometheus.Registry

	BalanceFetchDuration *prometheus.HistogramVec
	BalanceFetchErrors   *prometheus.CounterVec
	PriceFetchDuration   *prometheus.HistogramVec
	PriceFetchErrors     *prometheus.CounterVec
	SnapshotsTotal       *prometheus.CounterVec
	SnapshotDuration     prometheus.Histogram
	StaleDiscarded       prometheus.Counter
	ActiveWatches        prometheus.Gauge
}

var _ port.Metrics = (*Prometheus)(nil)

// New registers all collectors on a fresh registry, together with the Go and
// process collectors.
func New(namespace string) *Prometheus {
	if namespace == "" {
		namespace = defaultNamespace
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,

		BalanceFetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "balance",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of balanceOf calls including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"token"}),
		BalanceFetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "balance",
			Name:      "fetch_errors_total",
			Help:      "Balance fetches that failed after retries",
		}, []string{"token"}),
		PriceFetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of price feed calls including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"feed"}),
		PriceFetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "fetch_errors_total",
			Help:      "Price feed calls that failed after retries",
		}, []string{"feed"}),
		SnapshotsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "snapshots_total",
			Help:      "Computed snapshots by completeness",
		}, []string{"complete"}),
		SnapshotDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "snapshot_duration_seconds",
			Help:      "Wall time of one fan-out/fan-in cycle",
			Buckets:   prometheus.DefBuckets,
		}),
		StaleDiscarded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "stale_results_discarded_total",
			Help:      "Results dropped because a newer computation had started",
		}),
		ActiveWatches: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "active_sessions",
			Help:      "Number of live watch sessions",
		}),
	}
}

func (p *Prometheus) ObserveBalanceFetch(symbol string, d time.Duration, err error) {
	p.BalanceFetchDuration.WithLabelValues(symbol).Observe(d.Seconds())
	if err != nil {
		p.BalanceFetchErrors.WithLabelValues(symbol).Inc()
	}
}

func (p *Prometheus) ObservePriceFetch(feed string, d time.Duration, err error) {
	p.PriceFetchDuration.WithLabelValues(feed).Observe(d.Seconds())
	if err != nil {
		p.PriceFetchErrors.WithLabelValues(feed).Inc()
	}
}

func (p *Prometheus) ObserveSnapshot(complete bool, d time.Duration) {
	label := "false"
	if complete {
		label = "true"
	}
	p.SnapshotsTotal.WithLabelValues(label).Inc()
	p.SnapshotDuration.Observe(d.Seconds())
}

func (p *Prometheus) IncStaleDiscarded() { p.StaleDiscarded.Inc() }

func (p *Prometheus) SetActiveWatches(n int) { p.ActiveWatches.Set(float64(n)) }

// Registry returns the registry backing Handler.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
