package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuality(t *testing.T) {
	t.Parallel()

	for q := MinQuality; q <= MaxQuality; q++ {
		assert.NoError(t, ValidateQuality(q), "quality %d", q)
	}
	for _, q := range []int{-1, 6, 100} {
		err := ValidateQuality(q)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidQuality))
	}
}

func TestNewReviewState(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	userID, cardID := uuid.New(), uuid.New()

	state := NewReviewState(userID, cardID, now)

	assert.Equal(t, 0, state.Repetitions)
	assert.Equal(t, DefaultEaseFactor, state.EaseFactor)
	assert.Equal(t, 0, state.Interval)
	assert.True(t, state.DueDate.Equal(now))
	assert.True(t, state.IsNew())
	assert.True(t, state.IsDue(now), "a never-reviewed pair is due immediately")
}

func TestReviewStateIsDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	state := &ReviewState{DueDate: now}

	assert.True(t, state.IsDue(now))
	assert.True(t, state.IsDue(now.Add(time.Second)))
	assert.False(t, state.IsDue(now.Add(-time.Nanosecond)))
}

func TestReviewLogEntryValidate(t *testing.T) {
	t.Parallel()

	reviewedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	valid := func() *ReviewLogEntry {
		return &ReviewLogEntry{
			UserID:      uuid.New(),
			CardID:      uuid.New(),
			ReviewedAt:  reviewedAt,
			EaseFactor:  2.6,
			Interval:    6,
			Repetitions: 2,
			LastRating:  5,
			DueDate:     reviewedAt.AddDate(0, 0, 6),
		}
	}

	tests := []struct {
		name    string
		mutate  func(e *ReviewLogEntry)
		wantErr error
	}{
		{"valid", func(e *ReviewLogEntry) {}, nil},
		{"nil user", func(e *ReviewLogEntry) { e.UserID = uuid.Nil }, ErrEmptyReviewUserID},
		{"nil card", func(e *ReviewLogEntry) { e.CardID = uuid.Nil }, ErrEmptyReviewCardID},
		{"ease below floor", func(e *ReviewLogEntry) { e.EaseFactor = 1.29 }, ErrEaseFactorBelowMin},
		{"negative interval", func(e *ReviewLogEntry) { e.Interval = -1 }, ErrNegativeInterval},
		{"negative repetitions", func(e *ReviewLogEntry) { e.Repetitions = -1 }, ErrNegativeRepetitions},
		{"rating out of range", func(e *ReviewLogEntry) { e.LastRating = 6 }, ErrInvalidQuality},
		{"due date mismatch", func(e *ReviewLogEntry) { e.DueDate = reviewedAt }, ErrDueDateMismatch},
		{"interval at the maximum", func(e *ReviewLogEntry) {
			e.Interval = MaxInterval
			e.DueDate = reviewedAt.AddDate(0, 0, MaxInterval)
		}, nil},
		{"interval above the maximum", func(e *ReviewLogEntry) {
			e.Interval = MaxInterval + 1
			e.DueDate = reviewedAt.AddDate(0, 0, MaxInterval+1)
		}, ErrIntervalTooLarge},
		{"due date past year 9999", func(e *ReviewLogEntry) {
			e.ReviewedAt = MaxStorableTime.AddDate(0, 0, -3)
			e.DueDate = e.ReviewedAt.AddDate(0, 0, 6)
		}, ErrTimeOutOfRange},
		{"reviewed before year 1", func(e *ReviewLogEntry) {
			e.ReviewedAt = MinStorableTime.Add(-time.Hour)
			e.DueDate = e.ReviewedAt.AddDate(0, 0, 6)
		}, ErrTimeOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			entry := valid()
			tt.mutate(entry)

			err := entry.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
		})
	}
}

func TestIsStorableTime(t *testing.T) {
	t.Parallel()

	assert.True(t, IsStorableTime(MinStorableTime))
	assert.True(t, IsStorableTime(MaxStorableTime))
	assert.True(t, IsStorableTime(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsStorableTime(MaxStorableTime.Add(time.Microsecond)))
	assert.False(t, IsStorableTime(MinStorableTime.Add(-time.Microsecond)))
	assert.False(t, IsStorableTime(time.Time{}.AddDate(0, 0, -1)))
}

func TestStateFromEntryAndStudyInfo(t *testing.T) {
	t.Parallel()

	reviewedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	card := &Card{ID: uuid.New(), DeckID: uuid.New(), Front: "front", Back: "back"}
	entry := &ReviewLogEntry{
		UserID:      uuid.New(),
		CardID:      card.ID,
		ReviewedAt:  reviewedAt,
		EaseFactor:  2.36,
		Interval:    1,
		Repetitions: 0,
		LastRating:  2,
		DueDate:     reviewedAt.AddDate(0, 0, 1),
	}

	state := StateFromEntry(entry, 4)
	assert.Equal(t, int64(4), state.Version)
	assert.False(t, state.IsNew())

	info := NewCardStudyInfo(card, state)
	assert.Equal(t, card.ID, info.CardID)
	assert.Equal(t, card.DeckID, info.DeckID)
	assert.Equal(t, "front", info.Front)
	assert.Equal(t, "back", info.Back)
	assert.Equal(t, 2.36, info.EaseFactor)
	assert.Equal(t, 1, info.Interval)
	assert.True(t, info.DueDate.Equal(entry.DueDate))
	assert.False(t, info.IsNew)
}
