package broker

import (
	"context"

	"filedeck/internal/domain"
)

// Publisher emits activity events. Implementations never fail the caller.
type Publisher interface {
	Publish(ctx context.Context, event domain.ActivityEvent)
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, domain.ActivityEvent) {}

func (Nop) Close() error { return nil }
