package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the storefront's business counters.
type Metrics struct {
	OrdersCreated          prometheus.Counter
	OrderNumberCollisions  prometheus.Counter
	ResetTokensIssued      prometheus.Counter
	PasswordResets         prometheus.Counter
	EmailsSent             *prometheus.CounterVec
	CustomizationsReceived prometheus.Counter
}

// New creates the counters and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aralis",
			Name:      "orders_created_total",
			Help:      "Orders created at checkout.",
		}),
		OrderNumberCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aralis",
			Name:      "order_number_collisions_total",
			Help:      "Order number candidates rejected because they were already taken.",
		}),
		ResetTokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aralis",
			Name:      "password_reset_tokens_issued_total",
			Help:      "Password reset tokens issued.",
		}),
		PasswordResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aralis",
			Name:      "password_resets_total",
			Help:      "Passwords changed through a reset token.",
		}),
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aralis",
			Name:      "emails_total",
			Help:      "Emails handed to the mailer, by template and outcome.",
		}, []string{"template", "outcome"}),
		CustomizationsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aralis",
			Name:      "customization_requests_total",
			Help:      "Garment customization requests received.",
		}),
	}
	reg.MustRegister(
		m.OrdersCreated,
		m.OrderNumberCollisions,
		m.ResetTokensIssued,
		m.PasswordResets,
		m.EmailsSent,
		m.CustomizationsReceived,
	)
	return m
}

// NewUnregistered returns counters that are not exported anywhere; used by tests and tools.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
