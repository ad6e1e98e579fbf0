package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulerMetrics exposes counters/histograms for booking, cart and
// integration flows.
type SchedulerMetrics struct {
	availabilityTotal *prometheus.CounterVec
	bookingsCreated   *prometheus.CounterVec
	transitionsTotal  *prometheus.CounterVec
	calendarTotal     *prometheus.CounterVec
	calendarLatency   *prometheus.HistogramVec
	cartCheckouts     *prometheus.CounterVec
	eventsTotal       *prometheus.CounterVec
}

func NewSchedulerMetrics(reg prometheus.Registerer) *SchedulerMetrics {
	m := &SchedulerMetrics{
		availabilityTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "availability_requests_total",
			Help:      "Slot computations by outcome",
		}, []string{"outcome"}),
		bookingsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "bookings_created_total",
			Help:      "Booking creation attempts by result",
		}, []string{"result"}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions and deletions",
		}, []string{"transition", "result"}),
		calendarTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "calendar_requests_total",
			Help:      "External calendar calls by operation and status",
		}, []string{"operation", "status"}),
		calendarLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salon",
			Name:      "calendar_request_seconds",
			Help:      "Latency of external calendar calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		cartCheckouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "cart_checkouts_total",
			Help:      "Cart checkouts by discount tier",
		}, []string{"tier"}),
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Name:      "booking_events_total",
			Help:      "Booking change events delivered per sink",
		}, []string{"sink", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.availabilityTotal,
		m.bookingsCreated,
		m.transitionsTotal,
		m.calendarTotal,
		m.calendarLatency,
		m.cartCheckouts,
		m.eventsTotal,
	)
	return m
}

func (m *SchedulerMetrics) ObserveAvailability(outcome string) {
	if m == nil {
		return
	}
	m.availabilityTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulerMetrics) ObserveBookingCreated(result string) {
	if m == nil {
		return
	}
	m.bookingsCreated.WithLabelValues(result).Inc()
}

func (m *SchedulerMetrics) ObserveTransition(transition string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "rejected"
	}
	m.transitionsTotal.WithLabelValues(transition, result).Inc()
}

func (m *SchedulerMetrics) ObserveCalendarRequest(operation, status string, seconds float64) {
	if m == nil {
		return
	}
	m.calendarTotal.WithLabelValues(operation, status).Inc()
	m.calendarLatency.WithLabelValues(operation).Observe(seconds)
}

func (m *SchedulerMetrics) ObserveCartCheckout(tier string) {
	if m == nil {
		return
	}
	m.cartCheckouts.WithLabelValues(tier).Inc()
}

func (m *SchedulerMetrics) ObserveEventDelivery(sink string, ok bool) {
	if m == nil {
		return
	}
	status := "delivered"
	if !ok {
		status = "failed"
	}
	m.eventsTotal.WithLabelValues(sink, status).Inc()
}
