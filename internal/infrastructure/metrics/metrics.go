package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics defines our Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	OpenConnections prometheus.Gauge
	OnlineUsers     prometheus.Gauge
	EventsTotal     *prometheus.CounterVec
	DroppedSends    prometheus.Counter
	StatusChanges   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		OpenConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "presence_open_connections",
			Help: "Number of currently open socket connections.",
		}),
		OnlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "presence_online_users",
			Help: "Number of user identifiers with at least one live connection.",
		}),
		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "presence_events_total",
			Help: "Inbound socket events by kind.",
		}, []string{"type"}),
		DroppedSends: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "presence_dropped_sends_total",
			Help: "Deliveries dropped because a client outbound buffer was full.",
		}),
		StatusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "presence_status_changes_total",
			Help: "Presence transitions broadcast to clients by status.",
		}, []string{"status"}),
	}

	m.registry.MustRegister(
		m.OpenConnections,
		m.OnlineUsers,
		m.EventsTotal,
		m.DroppedSends,
		m.StatusChanges,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
