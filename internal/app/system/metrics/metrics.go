// Package metrics holds the Prometheus collectors for the app and the
// middleware and handler that expose them.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fanzone_requests_total",
		Help: "Total HTTP requests by method, route, and response status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fanzone_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	authEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fanzone_auth_events_total",
		Help: "Account events by type and outcome.",
	}, []string{"event", "result"})

	followChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fanzone_follow_changes_total",
		Help: "Follow collection mutations by kind and action.",
	}, []string{"kind", "action"})

	passwordHashDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fanzone_password_hash_seconds",
		Help:    "Time spent in bcrypt, excluding time waiting for a worker slot.",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5},
	}, []string{"op"})

	passwordHashWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fanzone_password_hash_wait_seconds",
		Help:    "Time requests waited for a free hashing worker.",
		Buckets: prometheus.DefBuckets,
	})
)

// UnmatchedRoute labels requests that matched no chi route.
const UnmatchedRoute = "unmatched"

// Middleware records per-request count and latency, labelled by the chi
// route pattern so ids in paths do not explode cardinality. Requests no
// route matched share the UnmatchedRoute label.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := UnmatchedRoute
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		requestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordAuth counts an account event such as "login" or "signup".
func RecordAuth(event string, success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	authEventsTotal.WithLabelValues(event, result).Inc()
}

// RecordFollow counts a follow collection change that was persisted.
func RecordFollow(kind, action string) {
	followChangesTotal.WithLabelValues(kind, action).Inc()
}

// ObserveHash records how long a bcrypt operation ran.
func ObserveHash(op string, d time.Duration) {
	passwordHashDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveHashWait records how long a caller queued for a hashing slot.
func ObserveHashWait(d time.Duration) {
	passwordHashWait.Observe(d.Seconds())
}
