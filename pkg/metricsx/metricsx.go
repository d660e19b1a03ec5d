// Package metricsx owns the Prometheus collectors for authentication and
// authorization outcomes. A nil *Metrics is valid and records nothing.
package metricsx

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	credentialChecks   *prometheus.CounterVec
	mfaChallenges      *prometheus.CounterVec
	ownershipDecisions *prometheus.CounterVec
	tokensIssued       *prometheus.CounterVec
}

// New creates a registry for service with the Go runtime and process
// collectors plus the domain counters.
func New(service string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	labels := prometheus.Labels{"service": service}
	m := &Metrics{
		registry: reg,
		credentialChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "credential_checks_total",
			Help:        "Password checks by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		mfaChallenges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "mfa_challenges_total",
			Help:        "TOTP comparisons by stage and result.",
			ConstLabels: labels,
		}, []string{"stage", "result"}),
		ownershipDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "ownership_decisions_total",
			Help:        "Resource ownership evaluations by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
		tokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "tokens_issued_total",
			Help:        "Access tokens minted by grant type.",
			ConstLabels: labels,
		}, []string{"grant"}),
	}
	reg.MustRegister(m.credentialChecks, m.mfaChallenges, m.ownershipDecisions, m.tokensIssued)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) CredentialCheck(ok bool) {
	if m == nil {
		return
	}
	m.credentialChecks.WithLabelValues(result(ok)).Inc()
}

// MFAChallenge records a TOTP comparison; stage is "enroll", "challenge" or "disable".
func (m *Metrics) MFAChallenge(stage string, ok bool) {
	if m == nil {
		return
	}
	m.mfaChallenges.WithLabelValues(stage, result(ok)).Inc()
}

func (m *Metrics) OwnershipDecision(reason string) {
	if m == nil {
		return
	}
	m.ownershipDecisions.WithLabelValues(reason).Inc()
}

func (m *Metrics) TokenIssued(grant string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(grant).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
