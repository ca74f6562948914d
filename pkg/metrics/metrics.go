package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the domain counters exported on /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Registrations        *prometheus.CounterVec
	VerificationEmails   *prometheus.CounterVec
	Logins               *prometheus.CounterVec
	OrdersCreated        *prometheus.CounterVec
	PaymentVerifications *prometheus.CounterVec
	PlanUpgrades         *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "registrations_total",
			Help: "Account registrations by outcome.",
		}, []string{"outcome"}),
		VerificationEmails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "verification_emails_total",
			Help: "Verification emails handed to the notifier by outcome.",
		}, []string{"outcome"}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "logins_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		OrdersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "orders_created_total",
			Help: "Gateway orders created by plan and outcome.",
		}, []string{"plan", "outcome"}),
		PaymentVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "payment_verifications_total",
			Help: "Payment verification attempts by outcome.",
		}, []string{"outcome"}),
		PlanUpgrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "plan_upgrades_total",
			Help: "Subscription plan upgrades applied.",
		}, []string{"plan"}),
	}
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.Registrations, m.VerificationEmails, m.Logins,
		m.OrdersCreated, m.PaymentVerifications, m.PlanUpgrades,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Inc bumps c with the given label values; safe on a nil receiver.
func (m *Metrics) Inc(c func(*Metrics) *prometheus.CounterVec, labels ...string) {
	if m == nil {
		return
	}
	c(m).WithLabelValues(labels...).Inc()
}

func Registrations(m *Metrics) *prometheus.CounterVec        { return m.Registrations }
func VerificationEmails(m *Metrics) *prometheus.CounterVec   { return m.VerificationEmails }
func Logins(m *Metrics) *prometheus.CounterVec               { return m.Logins }
func OrdersCreated(m *Metrics) *prometheus.CounterVec        { return m.OrdersCreated }
func PaymentVerifications(m *Metrics) *prometheus.CounterVec { return m.PaymentVerifications }
func PlanUpgrades(m *Metrics) *prometheus.CounterVec         { return m.PlanUpgrades }
