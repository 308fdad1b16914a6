// Package metrics exposes prometheus collectors for the access-control core.
// All methods are nil-safe so components can run without a registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gamepanel/internal/constants"
)

// Result label values
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultAllowed = "allowed"
	ResultDenied  = "denied"
)

// Metrics holds the panel's collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	LoginsTotal           *prometheus.CounterVec
	TokenValidationsTotal *prometheus.CounterVec
	PermissionChecksTotal *prometheus.CounterVec
	TicketsIssuedTotal    prometheus.Counter
	TicketsRedeemedTotal  *prometheus.CounterVec
	TicketsOutstanding    prometheus.Gauge
	GuardRejectionsTotal  *prometheus.CounterVec
	RateLimitedTotal      *prometheus.CounterVec
	ConsoleClients        prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		TokenValidationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "auth",
			Name:      "token_validations_total",
			Help:      "Token validations by kind and result.",
		}, []string{"kind", "result"}),
		PermissionChecksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "auth",
			Name:      "permission_checks_total",
			Help:      "Permission checks by result.",
		}, []string{"result"}),
		TicketsIssuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "tickets",
			Name:      "issued_total",
			Help:      "Streaming tickets issued.",
		}),
		TicketsRedeemedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "tickets",
			Name:      "redeemed_total",
			Help:      "Ticket redemption attempts by result.",
		}, []string{"result"}),
		TicketsOutstanding: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "tickets",
			Name:      "outstanding",
			Help:      "Tickets issued and not yet redeemed or reclaimed.",
		}),
		GuardRejectionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "guard",
			Name:      "rejections_total",
			Help:      "Inputs rejected by guard.",
		}, []string{"guard"}),
		RateLimitedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests refused by a rate limiter.",
		}, []string{"limiter"}),
		ConsoleClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: constants.MetricsNamespace,
			Subsystem: "console",
			Name:      "clients",
			Help:      "Connected streaming console clients.",
		}),
	}

	reg.MustRegister(
		m.LoginsTotal,
		m.TokenValidationsTotal,
		m.PermissionChecksTotal,
		m.TicketsIssuedTotal,
		m.TicketsRedeemedTotal,
		m.TicketsOutstanding,
		m.GuardRejectionsTotal,
		m.RateLimitedTotal,
		m.ConsoleClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Login(ok bool) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result(ok, ResultSuccess, ResultFailure)).Inc()
}

func (m *Metrics) TokenValidation(kind string, ok bool) {
	if m == nil {
		return
	}
	m.TokenValidationsTotal.WithLabelValues(kind, result(ok, ResultSuccess, ResultFailure)).Inc()
}

func (m *Metrics) PermissionCheck(allowed bool) {
	if m == nil {
		return
	}
	m.PermissionChecksTotal.WithLabelValues(result(allowed, ResultAllowed, ResultDenied)).Inc()
}

func (m *Metrics) TicketIssued(outstanding int) {
	if m == nil {
		return
	}
	m.TicketsIssuedTotal.Inc()
	m.TicketsOutstanding.Set(float64(outstanding))
}

func (m *Metrics) TicketRedeemed(ok bool, outstanding int) {
	if m == nil {
		return
	}
	m.TicketsRedeemedTotal.WithLabelValues(result(ok, ResultSuccess, ResultFailure)).Inc()
	m.TicketsOutstanding.Set(float64(outstanding))
}

func (m *Metrics) TicketsSwept(outstanding int) {
	if m == nil {
		return
	}
	m.TicketsOutstanding.Set(float64(outstanding))
}

func (m *Metrics) GuardRejection(guard string) {
	if m == nil {
		return
	}
	m.GuardRejectionsTotal.WithLabelValues(guard).Inc()
}

func (m *Metrics) RateLimited(limiter string) {
	if m == nil {
		return
	}
	m.RateLimitedTotal.WithLabelValues(limiter).Inc()
}

func (m *Metrics) ConsoleClientsChanged(n int) {
	if m == nil {
		return
	}
	m.ConsoleClients.Set(float64(n))
}

func result(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
