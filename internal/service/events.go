package service

import "log/slog"

// Routing keys published on the shuttle exchange.
const (
	EventBookingConfirmed      = "booking.confirmed"
	EventGroupBookingConfirmed = "booking.group_confirmed"
	EventAllocationCompleted   = "allocation.completed"
	EventAllocationFailed      = "allocation.failed"
	EventDateLocked            = "lock.applied"
)

// EventPublisher is satisfied by the RabbitMQ publisher. A nil publisher
// disables notifications.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

// publish runs after commit; delivery failures are logged, never returned.
func publish(p EventPublisher, logger *slog.Logger, key string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(key, payload); err != nil {
		logger.Warn("publish failed", "routing_key", key, "error", err)
	}
}
