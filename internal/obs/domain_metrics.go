package obs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DomainMetrics tracks cart and checkout activity.
type DomainMetrics struct {
	CartMutations  *prometheus.CounterVec
	CheckoutTotal  *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
}

// NewDomainMetrics registers and returns domain metric collectors.
func NewDomainMetrics(namespace string, reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &DomainMetrics{
		CartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Cart mutations by operation.",
		}, []string{"op"}),
		CheckoutTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_submissions_total",
			Help:      "Checkout submissions by outcome.",
		}, []string{"outcome"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live gateway sessions.",
		}),
	}
	registerCounter(reg, &m.CartMutations)
	registerCounter(reg, &m.CheckoutTotal)
	registerGauge(reg, &m.ActiveSessions)
	return m
}

// ObserveCartMutation counts a cart operation by name.
func (m *DomainMetrics) ObserveCartMutation(op string) {
	if m == nil || m.CartMutations == nil {
		return
	}
	m.CartMutations.WithLabelValues(op).Inc()
}

// ObserveCheckout counts a submission outcome: accepted, rejected or failed.
func (m *DomainMetrics) ObserveCheckout(outcome string) {
	if m == nil || m.CheckoutTotal == nil {
		return
	}
	m.CheckoutTotal.WithLabelValues(outcome).Inc()
}

// SetActiveSessions updates the live session gauge.
func (m *DomainMetrics) SetActiveSessions(n int) {
	if m == nil || m.ActiveSessions == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
