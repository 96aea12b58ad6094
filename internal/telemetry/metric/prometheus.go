package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all application metrics.
type Registry struct {
	ConnectionsTotal prometheus.Counter
	CommandsTotal    prometheus.Counter
	ExpiredKeys      prometheus.Counter
	ReclaimedValues  prometheus.Counter
	ConnectedClients prometheus.Gauge
	BlockedClients   prometheus.Gauge
	PubsubChannels   prometheus.Gauge
	KeyspaceKeys     *prometheus.GaugeVec

	reg *prometheus.Registry
}

// New creates a registry with all collectors registered. The run id labels
// every metric so restarts are distinguishable.
func New(runID string) *Registry {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"run_id": runID}

	r := &Registry{
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bradis",
			Name:        "connections_total",
			Help:        "Connections accepted since startup",
			ConstLabels: labels,
		}),
		CommandsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bradis",
			Name:        "commands_total",
			Help:        "Commands processed by the store executor",
			ConstLabels: labels,
		}),
		ExpiredKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bradis",
			Name:        "expired_keys_total",
			Help:        "Keys removed by TTL expiration",
			ConstLabels: labels,
		}),
		ReclaimedValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "bradis",
			Name:        "reclaimed_values_total",
			Help:        "Values freed by the background reclaimer",
			ConstLabels: labels,
		}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "bradis",
			Name:        "connected_clients",
			Help:        "Currently connected clients",
			ConstLabels: labels,
		}),
		BlockedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "bradis",
			Name:        "blocked_clients",
			Help:        "Clients parked on blocking commands",
			ConstLabels: labels,
		}),
		PubsubChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "bradis",
			Name:        "pubsub_channels",
			Help:        "Channels with at least one subscriber",
			ConstLabels: labels,
		}),
		KeyspaceKeys: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "bradis",
			Name:        "keyspace_keys",
			Help:        "Keys per database",
			ConstLabels: labels,
		}, []string{"db"}),
		reg: reg,
	}

	reg.MustRegister(
		r.ConnectionsTotal,
		r.CommandsTotal,
		r.ExpiredKeys,
		r.ReclaimedValues,
		r.ConnectedClients,
		r.BlockedClients,
		r.PubsubChannels,
		r.KeyspaceKeys,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
