package metrics

import "github.com/prometheus/client_golang/prometheus"

// Reservation and checkout outcomes.
const (
	OutcomeSuccess    = "success"
	OutcomeOutOfStock = "out_of_stock"
	OutcomeRejected   = "rejected"
	OutcomeError      = "error"
)

// MarketplaceMetrics counts stock-sensitive operations.
type MarketplaceMetrics struct {
	reservations *prometheus.CounterVec
	checkouts    *prometheus.CounterVec
	sweptRows    *prometheus.CounterVec
}

// NewMarketplaceMetrics registers the marketplace counters on reg. A nil reg
// yields a no-op collector.
func NewMarketplaceMetrics(reg prometheus.Registerer) *MarketplaceMetrics {
	if reg == nil {
		return &MarketplaceMetrics{}
	}
	reservations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "box_reservations_total",
		Help:      "Surprise box reservation attempts by outcome.",
	}, []string{"outcome"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})
	sweptRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expiry_swept_rows_total",
		Help:      "Rows deactivated by the expiry sweep, by entity.",
	}, []string{"entity"})
	reg.MustRegister(reservations, checkouts, sweptRows)
	return &MarketplaceMetrics{
		reservations: reservations,
		checkouts:    checkouts,
		sweptRows:    sweptRows,
	}
}

func (m *MarketplaceMetrics) IncReservation(outcome string) {
	if m == nil || m.reservations == nil {
		return
	}
	m.reservations.WithLabelValues(labelOrUnknown(outcome)).Inc()
}

func (m *MarketplaceMetrics) IncCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(labelOrUnknown(outcome)).Inc()
}

func (m *MarketplaceMetrics) AddSwept(entity string, rows int64) {
	if m == nil || m.sweptRows == nil || rows <= 0 {
		return
	}
	m.sweptRows.WithLabelValues(labelOrUnknown(entity)).Add(float64(rows))
}
