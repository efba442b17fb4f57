package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics counts what the card service does. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	renders        prometheus.Counter
	formatDegraded *prometheus.CounterVec
	actions        *prometheus.CounterVec
	configRejected prometheus.Counter
	helpersReady   prometheus.Gauge
	entities       prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		renders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tdsflow_card_renders_total",
			Help: "Card render passes",
		}),
		formatDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tdsflow_format_degraded_total",
			Help: "Readings where the host formatter failed and a fallback was used",
		}, []string{"entity_id"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tdsflow_actions_total",
			Help: "Tap actions by kind and whether they reached a dispatcher",
		}, []string{"action", "dispatched"}),
		configRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tdsflow_config_rejected_total",
			Help: "Card configurations rejected as invalid",
		}),
		helpersReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tdsflow_helpers_ready",
			Help: "1 once the action dispatcher is acquired",
		}),
		entities: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tdsflow_store_entities",
			Help: "Entities known to the state store",
		}),
	}
	reg.MustRegister(m.renders, m.formatDegraded, m.actions, m.configRejected, m.helpersReady, m.entities)
	return m
}

func (m *Metrics) Render() {
	if m == nil {
		return
	}
	m.renders.Inc()
}

func (m *Metrics) FormatDegraded(entityID string, _ error) {
	if m == nil {
		return
	}
	m.formatDegraded.WithLabelValues(entityID).Inc()
}

func (m *Metrics) Action(kind string, dispatched bool) {
	if m == nil {
		return
	}
	d := "false"
	if dispatched {
		d = "true"
	}
	m.actions.WithLabelValues(kind, d).Inc()
}

func (m *Metrics) ConfigRejected() {
	if m == nil {
		return
	}
	m.configRejected.Inc()
}

func (m *Metrics) HelpersReady(ready bool) {
	if m == nil {
		return
	}
	if ready {
		m.helpersReady.Set(1)
	} else {
		m.helpersReady.Set(0)
	}
}

func (m *Metrics) Entities(n int) {
	if m == nil {
		return
	}
	m.entities.Set(float64(n))
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
