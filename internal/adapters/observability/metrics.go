package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"listings_pipeline/internal/domain"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "listings", Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "listings", Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "listings", Name: "external_requests_total", Help: "Object store and warehouse calls."},
		[]string{"service", "op", "outcome"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "listings", Name: "external_request_duration_seconds",
			Help:    "Object store and warehouse call duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "op"},
	)
	Jobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "listings", Name: "jobs_total", Help: "Pipeline invocations."},
		[]string{"pipeline", "outcome"}, // outcome: ok|failed|duplicate
	)
	Batches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "listings", Name: "batches_total", Help: "Split batch files."},
		[]string{"outcome"}, // outcome: uploaded|failed
	)
	Rows = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "listings", Name: "rows_total", Help: "Loaded CSV rows by decision."},
		[]string{"decision"}, // decision: insert|update|skip|failed|ambiguous
	)
	ClaimEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "listings", Name: "claims_total", Help: "Event claims taken/duplicate/released."},
		[]string{"event"},
	)
)

// Serve exposes reg on addr/metrics in the background. Empty addr disables it.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency, Jobs, Batches, Rows, ClaimEvents)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, op string, err error, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, op, outcome(err)).Inc()
	ExternalLatency.WithLabelValues(service, op).Observe(dur.Seconds())
}

func ObserveClaim(event string) { // event: taken|duplicate|released
	ClaimEvents.WithLabelValues(event).Inc()
}

func ObserveSplit(s domain.SplitSummary) {
	Jobs.WithLabelValues("split", jobOutcome(s.Err, s.Duplicate)).Inc()
	Batches.WithLabelValues("uploaded").Add(float64(s.Uploaded))
	Batches.WithLabelValues("failed").Add(float64(s.Failed))
}

func ObserveLoad(s domain.LoadSummary) {
	Jobs.WithLabelValues("load", jobOutcome(s.Err, s.Duplicate)).Inc()
	Rows.WithLabelValues(string(domain.DecisionInsert)).Add(float64(s.Loaded))
	Rows.WithLabelValues(string(domain.DecisionUpdate)).Add(float64(s.Updated))
	Rows.WithLabelValues(string(domain.DecisionSkip)).Add(float64(s.Discarded))
	Rows.WithLabelValues("failed").Add(float64(s.Failed))
	Rows.WithLabelValues("ambiguous").Add(float64(s.Ambiguous))
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}

func jobOutcome(errMsg string, duplicate bool) string {
	switch {
	case duplicate:
		return "duplicate"
	case errMsg != "":
		return "failed"
	default:
		return "ok"
	}
}
