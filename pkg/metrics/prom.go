package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the client's collectors. A private registry keeps tests
// and multiple binaries from fighting over the global default.
var Registry = prometheus.NewRegistry()

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sortinghat_client_request_duration_seconds",
			Help:    "Duration of backend API calls in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	RequestErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sortinghat_client_request_errors_total",
			Help: "Backend API calls that failed, labeled by status code (0 = network).",
		},
		[]string{"operation", "status_code"},
	)
	StaleResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sortinghat_client_stale_responses_total",
			Help: "Completions discarded because a newer request superseded them.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(RequestDuration)
	Registry.MustRegister(RequestErrors)
	Registry.MustRegister(StaleResponses)
}

// ObserveRequest records one API call in both the timing metric and the
// prometheus histogram. statusCode is 0 for network failures and ignored
// when err is nil.
func ObserveRequest(m *TimingMetric, d time.Duration, statusCode int, err error) {
	if !enabled {
		return
	}
	if m != nil {
		m.Record(d)
		RequestDuration.WithLabelValues(m.Name()).Observe(d.Seconds())
		if err != nil {
			RequestErrors.WithLabelValues(m.Name(), strconv.Itoa(statusCode)).Inc()
		}
	}
}

// RecordStale counts a discarded completion.
func RecordStale(kind string) {
	if !enabled {
		return
	}
	StaleResponses.WithLabelValues(kind).Inc()
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
