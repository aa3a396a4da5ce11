package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leoride",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leoride",
			Name:      "bookings_created_total",
			Help:      "Bookings successfully created.",
		},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "leoride",
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected for overlapping an existing booking.",
		},
	)

	payments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "leoride",
			Name:      "payments_total",
			Help:      "Payment attempts by final status.",
		},
		[]string{"status"},
	)

	paymentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "leoride",
			Name:      "payment_processing_seconds",
			Help:      "Simulated payment gateway round-trip time.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingConflicts, payments, paymentDuration)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}

func IncBookingConflict() {
	bookingConflicts.Inc()
}

// IncPayment records a finished payment attempt by status.
func IncPayment(status string) {
	payments.WithLabelValues(status).Inc()
}

// ObservePaymentDuration records how long the gateway simulation took.
func ObservePaymentDuration(seconds float64) {
	paymentDuration.Observe(seconds)
}
