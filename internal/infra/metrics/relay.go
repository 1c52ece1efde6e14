// File: internal/infra/metrics/relay.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesQueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_messages_queued_total",
			Help: "Forwarded messages accepted into a user's queue.",
		},
	)

	notesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_notes_created_total",
			Help: "Notes successfully created in the CRM.",
		},
	)

	flushFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_flush_failures_total",
			Help: "Flush attempts that failed upstream and were left retryable.",
		},
	)

	companySearches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_company_searches_total",
			Help: "Directory searches by outcome (hit, miss, error).",
		},
		[]string{"outcome"},
	)

	sessionsReset = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_sessions_reset_total",
			Help: "Session resets by reason (cancel, clear, flush).",
		},
		[]string{"reason"},
	)

	attioLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "attio_request_duration_seconds",
			Help:    "Attio API call latency distribution.",
			Buckets: []float64{0.05, 0.1, 0.2, 0.4, 0.8, 1.6, 3, 5, 10},
		},
		[]string{"endpoint", "success"},
	)
)

func init() {
	register(messagesQueued, notesCreated, flushFailures, companySearches, sessionsReset, attioLatency)
}

func MessageQueued() { messagesQueued.Inc() }

func NoteCreated() { notesCreated.Inc() }

func FlushFailed() { flushFailures.Inc() }

func CompanySearch(outcome string) { companySearches.WithLabelValues(outcome).Inc() }

func SessionReset(reason string) { sessionsReset.WithLabelValues(reason).Inc() }

func ObserveAttio(endpoint string, success bool, elapsed time.Duration) {
	attioLatency.WithLabelValues(endpoint, strconv.FormatBool(success)).Observe(elapsed.Seconds())
}
