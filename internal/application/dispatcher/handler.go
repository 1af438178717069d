package dispatcher

import (
	"context"

	"github.com/garyjia/docflow/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// Subscription identifies a registered handler
type Subscription struct {
	Name      string
	EventType event.Type
}

type registered struct {
	Subscription
	handler Handler
}
