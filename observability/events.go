package observability

import (
	"strconv"

	"carbonmarket/core/events"
)

// Emit implements events.Emitter. Amount and escrow attributes are read from
// the flattened payload when the event exposes one.
func (m *MarketMetrics) Emit(evt events.Event) {
	if m == nil || evt == nil {
		return
	}
	eventType := evt.EventType()
	if eventType == "" {
		eventType = "unknown"
	}
	m.events.WithLabelValues(eventType).Inc()

	payload, ok := evt.(events.Payload)
	if !ok {
		return
	}
	record := payload.Event()
	if record == nil {
		return
	}
	if amount, err := strconv.ParseFloat(record.Attr("amount"), 64); err == nil && amount > 0 {
		m.volume.WithLabelValues(eventType).Add(amount)
	}
	market := record.Attr("marketplace")
	if market == "" {
		return
	}
	if escrow, err := strconv.ParseFloat(record.Attr("escrow"), 64); err == nil {
		m.escrow.WithLabelValues(market).Set(escrow)
	}
}
