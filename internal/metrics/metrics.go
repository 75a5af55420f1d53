package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "marketplace"

// Metrics contains the marketplace's prometheus collectors.
type Metrics struct {
	// Operations counts marketplace operations by name and result ("ok" or "rejected").
	Operations *prometheus.CounterVec
	// OpenOrders is the number of orders currently stored.
	OpenOrders prometheus.Gauge
	// OpenBids is the number of bids currently stored.
	OpenBids prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := build()
	reg.MustRegister(m.Operations, m.OpenOrders, m.OpenBids)
	return m
}

// Nop returns collectors that are never registered anywhere.
func Nop() *Metrics {
	return build()
}

func build() *Metrics {
	return &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Marketplace operations by name and result.",
		}, []string{"op", "result"}),
		OpenOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_orders",
			Help:      "Orders currently stored, including expired ones.",
		}),
		OpenBids: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_bids",
			Help:      "Bids currently stored, including expired ones.",
		}),
	}
}

// ObserveOperation counts one operation.
func (m *Metrics) ObserveOperation(op string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.Operations.WithLabelValues(op, result).Inc()
}

// SetOpen records the current book sizes.
func (m *Metrics) SetOpen(orders, bids int) {
	m.OpenOrders.Set(float64(orders))
	m.OpenBids.Set(float64(bids))
}
