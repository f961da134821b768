// Package metrics defines the Prometheus metrics of the accounts service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the service counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Registrations    *prometheus.CounterVec
	Verifications    *prometheus.CounterVec
	CredentialChecks *prometheus.CounterVec
	AddressWrites    *prometheus.CounterVec
	EventsPublished  *prometheus.CounterVec
}

// New creates the metrics on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg)
}

// NewWithRegistry creates the metrics and registers them with reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_registrations_total",
			Help: "Registration attempts by outcome kind",
		}, []string{"result"}),
		Verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_verifications_total",
			Help: "Verification token redemptions by outcome kind",
		}, []string{"result"}),
		CredentialChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_credential_checks_total",
			Help: "Credential validations by outcome kind",
		}, []string{"result"}),
		AddressWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_address_writes_total",
			Help: "Address mutations by operation and result",
		}, []string{"op", "result"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "accounts_events_published_total",
			Help: "Published events by topic and result",
		}, []string{"topic", "result"}),
	}

	reg.MustRegister(m.Registrations, m.Verifications, m.CredentialChecks, m.AddressWrites, m.EventsPublished)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registration(result string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(result).Inc()
}

func (m *Metrics) Verification(result string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(result).Inc()
}

func (m *Metrics) CredentialCheck(result string) {
	if m == nil {
		return
	}
	m.CredentialChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) AddressWrite(op, result string) {
	if m == nil {
		return
	}
	m.AddressWrites.WithLabelValues(op, result).Inc()
}

func (m *Metrics) EventPublished(topic, result string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(topic, result).Inc()
}
