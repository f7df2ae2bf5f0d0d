// Package observability registers the Prometheus collectors exported on /metrics.
package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "emaily",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "emaily",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	purchases = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "emaily",
			Subsystem: "billing",
			Name:      "purchases_total",
			Help:      "Credit purchases by outcome.",
		},
		[]string{"outcome"},
	)
	creditsSold = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "emaily",
			Subsystem: "billing",
			Name:      "credits_sold_total",
			Help:      "Credits added to accounts after a successful charge.",
		},
	)
	signIns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "emaily",
			Subsystem: "auth",
			Name:      "sign_ins_total",
			Help:      "OAuth sign-ins by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register adds the collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, purchases, creditsSold, signIns)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}

// RecordHTTPRequest observes one served request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordPurchase counts a purchase attempt; credits is only added on success.
func RecordPurchase(outcome string, credits int) {
	purchases.WithLabelValues(outcome).Inc()
	if outcome == "success" && credits > 0 {
		creditsSold.Add(float64(credits))
	}
}

// RecordSignIn counts an OAuth callback outcome.
func RecordSignIn(outcome string) {
	signIns.WithLabelValues(outcome).Inc()
}
