// Package metrics exposes prometheus counters for the alert pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the pipeline counters on a private registry so tests can
// create isolated instances without default-registry collisions.
// A nil *Metrics is valid; all methods become no-ops.
type Metrics struct {
	registry *prometheus.Registry

	alertsCreated        *prometheus.CounterVec
	alertsSuppressed     *prometheus.CounterVec
	notificationsSent    prometheus.Counter
	notificationsDropped *prometheus.CounterVec
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		alertsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shelfwatch_alerts_created_total",
			Help: "Alerts persisted to the store, by type and severity.",
		}, []string{"type", "severity"}),
		alertsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shelfwatch_alerts_suppressed_total",
			Help: "Candidate alerts dropped by the suppression engine, by reason.",
		}, []string{"reason"}),
		notificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shelfwatch_notifications_sent_total",
			Help: "Notifications successfully handed to the delivery provider.",
		}),
		notificationsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shelfwatch_notifications_dropped_total",
			Help: "Queued notifications dropped without delivery, by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		m.alertsCreated,
		m.alertsSuppressed,
		m.notificationsSent,
		m.notificationsDropped,
	)
	return m
}

// IncCreated counts a persisted alert.
func (m *Metrics) IncCreated(alertType, severity string) {
	if m == nil {
		return
	}
	m.alertsCreated.WithLabelValues(alertType, severity).Inc()
}

// IncSuppressed counts a suppressed candidate.
func (m *Metrics) IncSuppressed(reason string) {
	if m == nil {
		return
	}
	m.alertsSuppressed.WithLabelValues(reason).Inc()
}

// IncSent counts a delivered notification.
func (m *Metrics) IncSent() {
	if m == nil {
		return
	}
	m.notificationsSent.Inc()
}

// IncDropped counts a dropped notification.
func (m *Metrics) IncDropped(reason string) {
	if m == nil {
		return
	}
	m.notificationsDropped.WithLabelValues(reason).Inc()
}

// Handler returns an HTTP handler serving the registry in the
// prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
