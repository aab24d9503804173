package observability

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// MarketMetrics tracks marketplace activity derived from emitted events.
type MarketMetrics struct {
	events *prometheus.CounterVec
	volume *prometheus.CounterVec
	escrow *prometheus.GaugeVec
}

// NewMarketMetrics builds the marketplace collectors under namespace and
// registers them with reg. A nil registerer leaves the collectors unregistered.
func NewMarketMetrics(namespace string, reg prometheus.Registerer) (*MarketMetrics, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = "carbonmkt"
	}
	m := &MarketMetrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketplace",
			Name:      "events_total",
			Help:      "Count of marketplace events segmented by event type.",
		}, []string{"type"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketplace",
			Name:      "volume_total",
			Help:      "Sum of amounts carried by marketplace events segmented by event type.",
		}, []string{"type"}),
		escrow: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "marketplace",
			Name:      "escrow_balance",
			Help:      "Escrow balance of each marketplace after its latest bid event.",
		}, []string{"marketplace"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.events, m.volume, m.escrow} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}
