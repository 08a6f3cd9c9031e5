package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

var (
	Reservations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_reservations_total",
		Help:      "Reservation attempts by result.",
	}, []string{"result"})

	StockIntegrityViolations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stock_integrity_violations_total",
		Help:      "Availability computations that came out negative before clamping.",
	})

	CartMutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutations_total",
		Help:      "Cart action batches by result code.",
	}, []string{"result"})

	Checkouts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by final state and rejection code.",
	}, []string{"state", "code"})

	OutboxPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_events_total",
		Help:      "Outbox publish attempts by result.",
	}, []string{"result"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"route", "status"})

	HTTPLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(
		Reservations,
		StockIntegrityViolations,
		CartMutations,
		Checkouts,
		OutboxPublished,
		HTTPRequests,
		HTTPLatency,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveMS records the elapsed time in milliseconds on h.
func (t *Timer) ObserveMS(h prometheus.Observer) {
	h.Observe(float64(t.Duration().Microseconds()) / 1000)
}
