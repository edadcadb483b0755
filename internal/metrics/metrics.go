package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics — счётчики и гистограммы движка доступности.
// Все методы безопасны на nil-приёмнике.
type BookingMetrics struct {
	bookingTotal  *prometheus.CounterVec
	slotsListed   prometheus.Histogram
	cacheTotal    *prometheus.CounterVec
	commitLatency prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "availability",
			Name:      "booking_total",
			Help:      "Booking attempts by outcome and rejection reason",
		}, []string{"outcome", "reason"}),
		slotsListed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "availability",
			Name:      "slots_listed",
			Help:      "Number of available slots returned per day listing",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 40, 80},
		}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "availability",
			Name:      "cache_total",
			Help:      "Cache lookups by cache and result",
		}, []string{"cache", "result"}),
		commitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "availability",
			Name:      "commit_latency_seconds",
			Help:      "Latency of the booking commit transaction",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingTotal, m.slotsListed, m.cacheTotal, m.commitLatency)
	return m
}

// ObserveBooking: outcome из accepted, rejected, error.
func (m *BookingMetrics) ObserveBooking(outcome, reason string) {
	if m == nil {
		return
	}
	m.bookingTotal.WithLabelValues(outcome, reason).Inc()
}

func (m *BookingMetrics) ObserveSlotsListed(n int) {
	if m == nil {
		return
	}
	m.slotsListed.Observe(float64(n))
}

func (m *BookingMetrics) ObserveCache(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheTotal.WithLabelValues(cache, result).Inc()
}

func (m *BookingMetrics) ObserveCommitLatency(seconds float64) {
	if m == nil {
		return
	}
	m.commitLatency.Observe(seconds)
}
