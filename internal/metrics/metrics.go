package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vovakirdan/ircsession/internal/core"
)

// Metrics holds the session counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	inbound   *prometheus.CounterVec
	outbound  prometheus.Counter
	events    *prometheus.CounterVec
	failures  *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	connected prometheus.Gauge
}

// New builds the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		inbound: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: "irc",
				Name:      "messages_received",
				Help:      "Number of inbound IRC messages, by command.",
			},
			[]string{"command"},
		),
		outbound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Subsystem: "irc",
				Name:      "lines_sent",
				Help:      "Number of IRC lines written to the server.",
			},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: "session",
				Name:      "events_dispatched",
				Help:      "Number of session events dispatched, by kind.",
			},
			[]string{"kind"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: "session",
				Name:      "listener_failures",
				Help:      "Number of listener errors and panics, by event kind.",
			},
			[]string{"kind"},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: "encoder",
				Name:      "commands_rejected",
				Help:      "Number of commands refused by the encoder, by command and reason.",
			},
			[]string{"command", "reason"},
		),
		connected: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Subsystem: "irc",
				Name:      "connected",
				Help:      "1 while a server connection is up.",
			},
		),
	}
	m.registry.MustRegister(m.inbound, m.outbound, m.events, m.failures, m.rejected, m.connected)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Inbound counts one received message. Commands the session does not know
// are counted as "other" so a server cannot grow the label set.
func (m *Metrics) Inbound(command string) {
	if m == nil {
		return
	}
	label := "other"
	if core.IsKnownCommand(command) {
		label = strings.ToUpper(command)
	}
	m.inbound.WithLabelValues(label).Inc()
}

// Outbound counts one sent line.
func (m *Metrics) Outbound() {
	if m == nil {
		return
	}
	m.outbound.Inc()
}

// Rejected counts a command refused by the encoder.
func (m *Metrics) Rejected(command string, err error) {
	if m == nil {
		return
	}
	reason := core.ErrorCode(err)
	if reason == "" {
		reason = "other"
	}
	m.rejected.WithLabelValues(command, reason).Inc()
}

// ListenerFailure counts a listener failure.
func (m *Metrics) ListenerFailure(f *core.ObserverFailure) {
	if m == nil || f == nil {
		return
	}
	m.failures.WithLabelValues(f.Event.Kind.String()).Inc()
}

// HandleEvent counts dispatched events and tracks the connection gauge.
func (m *Metrics) HandleEvent(_ *core.Session, ev core.Event) error {
	if m == nil {
		return nil
	}
	m.events.WithLabelValues(ev.Kind.String()).Inc()
	switch ev.Kind {
	case core.EventConnected:
		m.connected.Set(1)
	case core.EventDisconnected:
		m.connected.Set(0)
	}
	return nil
}
