package driven

import (
	"context"
	"time"
)

// Event routing keys published by the application layer.
const (
	EventAccessCodeIssued           = "access_code.issued"
	EventAccessCodeRedeemed         = "access_code.redeemed"
	EventAccountEnrollmentActivated = "account.enrollment_activated"
)

// Event is a domain notification. Payload must be JSON-serializable and must
// never carry code strings or account secrets.
type Event struct {
	RoutingKey string
	OccurredAt time.Time
	Payload    any
}

// EventPublisher defines the driven port for emitting domain events.
// Implementations must not block the caller for long; failures are reported
// but callers treat them as non-fatal.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
