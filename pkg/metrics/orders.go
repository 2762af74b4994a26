package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// OrderMetrics tracks checkout outcomes.
type OrderMetrics struct {
	placed *prometheus.CounterVec
	failed *prometheus.CounterVec
	value  prometheus.Histogram
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders committed successfully.",
	}, []string{"status"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Order placements rejected, by error code.",
	}, []string{"reason"})
	value := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_total_amount",
		Help:    "Order totals at placement.",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000},
	})
	reg.MustRegister(placed, failed, value)
	return &OrderMetrics{placed: placed, failed: failed, value: value}
}

// IncPlaced counts a committed order and records its total.
func (o *OrderMetrics) IncPlaced(status string, total decimal.Decimal) {
	if o == nil || o.placed == nil {
		return
	}
	o.placed.WithLabelValues(normalizeLabel(status)).Inc()
	o.value.Observe(total.InexactFloat64())
}

func (o *OrderMetrics) IncFailed(reason string) {
	if o == nil || o.failed == nil {
		return
	}
	o.failed.WithLabelValues(normalizeLabel(reason)).Inc()
}
