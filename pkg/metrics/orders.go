package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics counts ledger and lifecycle activity.
type OrderMetrics struct {
	placed        prometheus.Counter
	statusChanges *prometheus.CounterVec
	anomalies     *prometheus.CounterVec
	cartOps       *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders finalized from a cart.",
	})
	statusChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_changes_total",
		Help: "Order status overwrites by source and target status.",
	}, []string{"from", "to"})
	anomalies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_anomalies_total",
		Help: "Status changes that skipped or reversed the usual progression.",
	}, []string{"from", "to"})
	cartOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_operations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	reg.MustRegister(placed, statusChanges, anomalies, cartOps)
	return &OrderMetrics{
		placed:        placed,
		statusChanges: statusChanges,
		anomalies:     anomalies,
		cartOps:       cartOps,
	}
}

// IncPlaced counts one finalized order.
func (m *OrderMetrics) IncPlaced() {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
}

// ObserveStatusChange records a status overwrite and, when flagged, an anomaly.
func (m *OrderMetrics) ObserveStatusChange(from, to string, anomalous bool) {
	if m == nil || m.statusChanges == nil {
		return
	}
	m.statusChanges.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
	if anomalous {
		m.anomalies.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
	}
}

// IncCartOp counts a cart mutation such as add, edit or remove.
func (m *OrderMetrics) IncCartOp(op string) {
	if m == nil || m.cartOps == nil {
		return
	}
	m.cartOps.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
