package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments one client. All fields are optional from the
// client's point of view; a nil *Metrics disables instrumentation.
type Metrics struct {
	MessagesRouted      prometheus.Counter
	MessagesDropped     prometheus.Counter
	CallbackInvocations prometheus.Counter
	ActiveSubscriptions prometheus.Gauge
	RPCRequests         *prometheus.CounterVec
}

// NewMetrics registers the client metrics with the given registerer,
// typically prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MessagesRouted: factory.NewCounter(prometheus.CounterOpts{
			Name: "meridian_client_messages_routed_total",
			Help: "Push messages matched to at least one subscription.",
		}),
		MessagesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "meridian_client_messages_dropped_total",
			Help: "Push messages dropped because they matched nothing or could not be decoded.",
		}),
		CallbackInvocations: factory.NewCounter(prometheus.CounterOpts{
			Name: "meridian_client_callback_invocations_total",
			Help: "Subscription handler invocations.",
		}),
		ActiveSubscriptions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "meridian_client_active_subscriptions",
			Help: "Currently registered subscriptions.",
		}),
		RPCRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_client_rpc_requests_total",
			Help: "RPC requests sent, by method and outcome.",
		}, []string{"method", "outcome"}),
	}
}

func (m *Metrics) routed() {
	if m != nil {
		m.MessagesRouted.Inc()
	}
}

func (m *Metrics) dropped() {
	if m != nil {
		m.MessagesDropped.Inc()
	}
}

func (m *Metrics) invoked() {
	if m != nil {
		m.CallbackInvocations.Inc()
	}
}

func (m *Metrics) subscriptionsDelta(delta float64) {
	if m != nil {
		m.ActiveSubscriptions.Add(delta)
	}
}

func (m *Metrics) request(method string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RPCRequests.WithLabelValues(method, outcome).Inc()
}
