// Package metrics exposes Prometheus counters for HTTP traffic and for
// appointment activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"appointment-booking-server/internal/models"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	appointmentsCreated prometheus.Counter
	statusTransitions   *prometheus.CounterVec
	appointmentsSeen    prometheus.Counter
	accessDenied        *prometheus.CounterVec
	streamClients       prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		appointmentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointments_created_total",
			Help: "Appointments booked by patients.",
		}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointment_status_transitions_total",
			Help: "Applied appointment status changes.",
		}, []string{"from", "to"}),
		appointmentsSeen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointments_marked_seen_total",
			Help: "Appointments flagged as seen by their doctor.",
		}),
		accessDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointment_access_denied_total",
			Help: "Requests refused by the appointment access policy.",
		}, []string{"operation"}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "appointment_stream_clients",
			Help: "Connected appointment event stream clients.",
		}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpInFlight, m.httpRequestsTotal, m.httpRequestDuration,
		m.appointmentsCreated, m.statusTransitions, m.appointmentsSeen,
		m.accessDenied, m.streamClients,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RequestStarted increments the in-flight gauge and returns a func that
// records the finished request.
func (m *Metrics) RequestStarted() func(method, path string, status int) {
	m.httpInFlight.Inc()
	start := time.Now()
	return func(method, path string, status int) {
		code := strconv.Itoa(status)
		m.httpRequestDuration.WithLabelValues(method, path, code).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(method, path, code).Inc()
		m.httpInFlight.Dec()
	}
}

// AppointmentCreated counts a booking.
func (m *Metrics) AppointmentCreated() { m.appointmentsCreated.Inc() }

// StatusChanged counts an applied transition.
func (m *Metrics) StatusChanged(from, to models.AppointmentStatus) {
	m.statusTransitions.WithLabelValues(string(from), string(to)).Inc()
}

// AppointmentsSeen adds n appointments flagged as seen.
func (m *Metrics) AppointmentsSeen(n int) { m.appointmentsSeen.Add(float64(n)) }

// AccessDenied counts a policy refusal for op.
func (m *Metrics) AccessDenied(op string) { m.accessDenied.WithLabelValues(op).Inc() }

// SetStreamClients reports the number of open event streams.
func (m *Metrics) SetStreamClients(n int) { m.streamClients.Set(float64(n)) }
