// Package service holds the business rules that sit between the HTTP
// handlers and the repositories: credential checks, ownership decisions,
// derived aggregates and event publishing.
package service

import (
	"context"
	"log/slog"

	"github.com/iliyamo/travel-booking-api/internal/apperr"
	"github.com/iliyamo/travel-booking-api/internal/id"
	"github.com/iliyamo/travel-booking-api/internal/queue"
)

// requireID rejects malformed identifiers before any store access.
func requireID(s, resource string) error {
	if !id.Valid(s) {
		return apperr.InvalidIdentifier(resource)
	}
	return nil
}

// publish emits an event. Failures are logged and never returned: the
// triggering request has already succeeded.
func publish(ctx context.Context, pub queue.Publisher, log *slog.Logger, typ string, payload any) {
	ev, err := queue.NewEvent(typ, payload)
	if err == nil {
		err = pub.Publish(ctx, ev)
	}
	if err != nil {
		log.Warn("publish event failed", "event", typ, "err", err)
	}
}
