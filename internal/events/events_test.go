package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReviewRecordedEvent(t *testing.T) {
	t.Parallel()

	payload := ReviewRecorded{
		UserID:      uuid.New(),
		CardID:      uuid.New(),
		Quality:     4,
		Repetitions: 2,
		EaseFactor:  2.5,
		Interval:    6,
		ReviewedAt:  time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
		DueDate:     time.Date(2025, 1, 7, 12, 0, 0, 0, time.UTC),
	}

	event, err := NewReviewRecordedEvent(payload)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, ReviewRecordedType, event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded ReviewRecorded
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload.CardID, decoded.CardID)
	assert.Equal(t, payload.Quality, decoded.Quality)
	assert.True(t, payload.DueDate.Equal(decoded.DueDate))
}

func TestNewEvent_UnencodablePayload(t *testing.T) {
	t.Parallel()

	_, err := NewEvent("broken", make(chan int))
	assert.Error(t, err)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	// The last event received by this handler
	LastEvent *Event
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}

func TestHandlerFunc(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("handler error")
	var got *Event
	h := HandlerFunc(func(_ context.Context, e *Event) error {
		got = e
		return wantErr
	})

	event, err := NewEvent("any", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.ErrorIs(t, h.HandleEvent(context.Background(), event), wantErr)
	assert.Same(t, event, got)
}
