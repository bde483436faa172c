// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "financeapp"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	Invitations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "invitations_total",
		Help:      "Invitation transitions by outcome.",
	}, []string{"outcome"})

	Transactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transactions_total",
		Help:      "Recorded transactions by type and source.",
	}, []string{"type", "source"})

	LimitRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "transaction_limit_rejections_total",
		Help:      "Transactions refused because the free monthly allowance was used up.",
	})

	Emails = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_total",
		Help:      "Email dispatch attempts by type and result.",
	}, []string{"type", "result"})

	Reminders = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reminders_total",
		Help:      "Due/overdue reminders sent by status.",
	}, []string{"status"})

	ReminderRuns = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "reminder_run_duration_seconds",
		Help:      "Duration of one reminder processing pass.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP records one finished request.
func ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// EmailResult records one dispatch attempt.
func EmailResult(typ string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	Emails.WithLabelValues(typ, result).Inc()
}
