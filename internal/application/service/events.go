package service

// Event names pushed to live clients.
const (
	EventCartUpdated      = "cart.updated"
	EventInvoiceCreated   = "invoice.created"
	EventInvoiceFinalized = "invoice.finalized"
	EventPaymentCreated   = "payment.created"
	EventPaymentCancelled = "payment.cancelled"
)

// EventPublisher fans domain events out to connected clients. Publish must
// not block the caller.
type EventPublisher interface {
	Publish(event string, payload any)
}

// NoopEvents discards every event.
type NoopEvents struct{}

func (NoopEvents) Publish(string, any) {}

func eventsOrNoop(p EventPublisher) EventPublisher {
	if p == nil {
		return NoopEvents{}
	}
	return p
}
