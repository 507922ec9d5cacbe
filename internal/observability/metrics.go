package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	sessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coldctl",
			Subsystem: "session",
			Name:      "sessions_total",
			Help:      "Completed device sessions.",
		},
		[]string{"command", "outcome"},
	)
	sessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coldctl",
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Device session duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"command", "outcome"},
	)
	exchangeRounds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coldctl",
			Subsystem: "session",
			Name:      "exchange_rounds",
			Help:      "Write/read rounds per device session.",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
		},
		[]string{"command"},
	)
	continuations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coldctl",
			Subsystem: "session",
			Name:      "continuations_total",
			Help:      "Interrupted-execution continuations served to the device.",
		},
		[]string{"command"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(sessions, sessionDuration, exchangeRounds, continuations)
	})
}

func RecordSession(command, outcome string, rounds int, duration time.Duration) {
	RegisterMetrics()
	sessions.WithLabelValues(command, outcome).Inc()
	sessionDuration.WithLabelValues(command, outcome).Observe(duration.Seconds())
	exchangeRounds.WithLabelValues(command).Observe(float64(rounds))
}

func RecordContinuation(command string) {
	RegisterMetrics()
	continuations.WithLabelValues(command).Inc()
}
