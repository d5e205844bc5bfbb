package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow. A nil
// receiver is a no-op so callers never need to guard.
type BookingMetrics struct {
	submissionsTotal *prometheus.CounterVec
	submitLatency    *prometheus.HistogramVec
	slotsGenerated   prometheus.Counter
	catalogLoads     *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnosmed",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Total booking submit attempts by outcome",
		}, []string{"outcome"}),
		submitLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "turnosmed",
			Subsystem: "booking",
			Name:      "submit_latency_seconds",
			Help:      "Latency of booking submissions end to end",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		slotsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "turnosmed",
			Subsystem: "slots",
			Name:      "generated_total",
			Help:      "Total slots produced by the generator",
		}),
		catalogLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnosmed",
			Subsystem: "catalog",
			Name:      "loads_total",
			Help:      "Catalog snapshot loads by source",
		}, []string{"source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.submitLatency, m.slotsGenerated, m.catalogLoads)
	return m
}

// ObserveSubmission records one submit attempt. Satisfies booking.Recorder.
func (m *BookingMetrics) ObserveSubmission(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
	m.submitLatency.WithLabelValues(outcome).Observe(seconds)
}

// ObserveSlotsGenerated records how many slots a generation pass produced.
func (m *BookingMetrics) ObserveSlotsGenerated(count int) {
	if m == nil {
		return
	}
	m.slotsGenerated.Add(float64(count))
}

// ObserveCatalogLoad records a catalog load. Source is "cache" or "backend".
func (m *BookingMetrics) ObserveCatalogLoad(source string) {
	if m == nil {
		return
	}
	m.catalogLoads.WithLabelValues(source).Inc()
}
