// Package metrics exposes search and lookup counters in Prometheus format.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/state"
)

// Metrics implements state.Recorder on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	searches       *prometheus.CounterVec
	searchDuration prometheus.Histogram
	details        *prometheus.CounterVec
}

// New registers the shelf collectors, plus the Go and process collectors, on
// a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shelf_searches_total",
			Help: "Searches issued, by outcome.",
		}, []string{"outcome"}),
		searchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "shelf_search_duration_seconds",
			Help:    "Time spent waiting for search responses.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		details: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shelf_detail_lookups_total",
			Help: "Single-volume lookups, by outcome.",
		}, []string{"outcome"}),
	}
}

// ObserveSearch counts one search. Superseded searches are counted but their
// latency is not, since nobody waited for them.
func (m *Metrics) ObserveSearch(outcome string, elapsed time.Duration) {
	m.searches.WithLabelValues(outcome).Inc()
	if outcome != state.OutcomeSuperseded {
		m.searchDuration.Observe(elapsed.Seconds())
	}
}

// ObserveDetail counts one detail lookup.
func (m *Metrics) ObserveDetail(outcome string) {
	m.details.WithLabelValues(outcome).Inc()
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve listens on addr and serves /metrics until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, log *logrus.Entry) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return m.serve(ctx, ln, log)
}

func (m *Metrics) serve(ctx context.Context, ln net.Listener, log *logrus.Entry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", ln.Addr().String()).Info("metrics listener started")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve metrics: %w", err)
	}
	return nil
}

var _ state.Recorder = (*Metrics)(nil)
