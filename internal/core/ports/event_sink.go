package ports

import (
	"context"

	"github.com/cugino/restaurant-auth/internal/core/domain"
)

// EventSink records drained domain events, typically in an audit table.
type EventSink interface {
	Record(ctx context.Context, event domain.Event) error
}

// EventPublisher hands drained events to asynchronous processing. The
// service treats publication as fire-and-forget: a slow or failing sink
// never blocks or fails the user-facing operation.
type EventPublisher interface {
	Publish(events []domain.Event)
}
