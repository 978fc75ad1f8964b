package stats

import (
	"context"
	"fmt"

	"github.com/phrazzld/studydeck-api/internal/events"
)

// EventHandler feeds review.recorded events into a Counter.
type EventHandler struct {
	counter Counter
}

var _ events.EventHandler = (*EventHandler)(nil)

// NewEventHandler returns a handler that records every review event in counter.
func NewEventHandler(counter Counter) *EventHandler {
	if counter == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("counter cannot be nil")
	}
	return &EventHandler{counter: counter}
}

// HandleEvent implements events.EventHandler. Other event types are ignored.
func (h *EventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.ReviewRecordedType {
		return nil
	}

	var payload events.ReviewRecorded
	if err := event.UnmarshalPayload(&payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}
	return h.counter.Record(ctx, payload.UserID, payload.Quality)
}
