package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HoldsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_holds_created_total",
		Help: "Number of holds successfully created",
	})

	HoldConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_hold_conflicts_total",
		Help: "Number of hold attempts rejected because seats were taken",
	})

	HoldsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_holds_expired_total",
		Help: "Number of holds released by the expiry sweep",
	})

	BookingsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_bookings_confirmed_total",
		Help: "Number of bookings confirmed after successful payment",
	})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_bookings_cancelled_total",
		Help: "Number of confirmed bookings cancelled with refund",
	})

	PaymentFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinebook_payment_failures_total",
		Help: "Number of failed charges by outcome",
	}, []string{"outcome"})

	PaymentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cinebook_payment_duration_seconds",
		Help:    "Latency of payment gateway charges",
		Buckets: prometheus.DefBuckets,
	})

	// InvariantViolations counts detected breaches of the one-state-per-
	// (show,seat) rule. Any non-zero value is an alert condition.
	InvariantViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_invariant_violations_total",
		Help: "Detected seat-state invariant violations",
	})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cinebook_http_request_duration_seconds",
		Help:    "HTTP request latency by method, path and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
