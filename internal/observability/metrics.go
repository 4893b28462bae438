// Package observability exposes the service's prometheus metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	LoginAttempts  *prometheus.CounterVec
	AuthzDecisions *prometheus.CounterVec
	EventsRelayed  *prometheus.CounterVec
}

// NewMetrics registers the service counters on the given registerer.
// Passing a fresh registry keeps tests independent.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labmanager",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		AuthzDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labmanager",
			Subsystem: "authz",
			Name:      "decisions_total",
			Help:      "Record-level authorization decisions by action and outcome.",
		}, []string{"action", "outcome"}),
		EventsRelayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labmanager",
			Subsystem: "outbox",
			Name:      "events_relayed_total",
			Help:      "Outbox events published to the broker by type.",
		}, []string{"event_type"}),
	}
}

// Decision increments the authz decision counter with a permit/deny
// outcome label.
func (m *Metrics) Decision(action string, allowed bool) {
	outcome := "deny"
	if allowed {
		outcome = "permit"
	}
	m.AuthzDecisions.WithLabelValues(action, outcome).Inc()
}
