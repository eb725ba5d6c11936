package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/codevault/internal/domain/port/driven"
)

// NopPublisher discards every event. It is used when no broker is configured.
type NopPublisher struct{}

// Publish implements driven.EventPublisher.
func (NopPublisher) Publish(context.Context, driven.Event) error { return nil }

// AccessCodeIssuedPayload is the body of an access_code.issued event.
type AccessCodeIssuedPayload struct {
	AccessCodeID int64      `json:"access_code_id"`
	AccountID    int64      `json:"account_id"`
	MaxUses      int        `json:"max_uses"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// AccessCodeRedeemedPayload is the body of an access_code.redeemed event.
type AccessCodeRedeemedPayload struct {
	AccessCodeID int64 `json:"access_code_id"`
	AccountID    int64 `json:"account_id"`
	UsedCount    int   `json:"used_count"`
	MaxUses      int   `json:"max_uses"`
}

// AccountEnrollmentActivatedPayload is the body of an account.enrollment_activated event.
type AccountEnrollmentActivatedPayload struct {
	AccountID int64 `json:"account_id"`
}

// publishEvent emits an event and only logs a failure; a broker outage must
// never fail the request that produced the event.
func publishEvent(ctx context.Context, publisher driven.EventPublisher, logger *slog.Logger, routingKey string, at time.Time, payload any) {
	err := publisher.Publish(ctx, driven.Event{RoutingKey: routingKey, OccurredAt: at, Payload: payload})
	if err != nil {
		logger.Warn("event publish failed", "routing_key", routingKey, "error", err)
	}
}
