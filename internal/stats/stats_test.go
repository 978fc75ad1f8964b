package stats

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/studydeck-api/internal/domain"
	"github.com/phrazzld/studydeck-api/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryCounter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	counter := NewInMemoryCounter()
	alice, bob := uuid.New(), uuid.New()

	for _, q := range []int{5, 4, 3, 2, 0, 5} {
		require.NoError(t, counter.Record(ctx, alice, q))
	}
	require.NoError(t, counter.Record(ctx, bob, 1))

	got, err := counter.Summary(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, Summary{
		Total:     6,
		Passed:    4,
		Failed:    2,
		ByQuality: [6]int64{1, 0, 1, 1, 1, 2},
	}, got)

	empty, err := counter.Summary(ctx, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, empty)
}

func TestInMemoryCounter_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		userID  uuid.UUID
		quality int
		want    error
	}{
		{name: "nil user", userID: uuid.Nil, quality: 3, want: ErrNilUser},
		{name: "quality too high", userID: uuid.New(), quality: 6, want: domain.ErrInvalidQuality},
		{name: "negative quality", userID: uuid.New(), quality: -1, want: domain.ErrInvalidQuality},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewInMemoryCounter().Record(context.Background(), tt.userID, tt.quality)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInMemoryCounter_ConcurrentRecords(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	counter := NewInMemoryCounter()
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(q int) {
			defer wg.Done()
			assert.NoError(t, counter.Record(ctx, userID, q))
		}(i % 6)
	}
	wg.Wait()

	got, err := counter.Summary(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), got.Total)
	assert.Equal(t, got.Total, got.Passed+got.Failed)
}

func TestEventHandler(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	counter := NewInMemoryCounter()
	handler := NewEventHandler(counter)
	userID := uuid.New()

	event, err := events.NewReviewRecordedEvent(events.ReviewRecorded{
		UserID:  userID,
		CardID:  uuid.New(),
		Quality: 4,
	})
	require.NoError(t, err)
	require.NoError(t, handler.HandleEvent(ctx, event))

	other, err := events.NewEvent("deck.created", map[string]string{"id": "x"})
	require.NoError(t, err)
	require.NoError(t, handler.HandleEvent(ctx, other))

	got, err := counter.Summary(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Total)
	assert.Equal(t, int64(1), got.ByQuality[4])

	broken := &events.Event{Type: events.ReviewRecordedType, Payload: []byte("{")}
	assert.Error(t, handler.HandleEvent(ctx, broken))
}
