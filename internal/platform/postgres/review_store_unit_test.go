package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/studydeck-api/internal/domain"
	"github.com/phrazzld/studydeck-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEntry(t *testing.T) *domain.ReviewLogEntry {
	t.Helper()
	reviewedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return &domain.ReviewLogEntry{
		UserID:      uuid.New(),
		CardID:      uuid.New(),
		ReviewedAt:  reviewedAt,
		EaseFactor:  2.6,
		Interval:    1,
		Repetitions: 1,
		LastRating:  5,
		DueDate:     reviewedAt.AddDate(0, 0, 1),
	}
}

func newMockReviewStore(t *testing.T) (*PostgresReviewStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresReviewStore(db, nil), mock
}

func TestNewPostgresReviewStore_NilDBPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewPostgresReviewStore(nil, nil) })
}

func TestPostgresReviewStore_Append(t *testing.T) {
	t.Parallel()

	t.Run("first entry inserts projection then log", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockReviewStore(t)
		entry := newEntry(t)

		mock.ExpectExec("INSERT INTO review_states").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO review_log").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

		state, err := s.Append(context.Background(), entry, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(42), entry.ID)
		assert.Equal(t, int64(1), state.Version)
		assert.Equal(t, entry.DueDate, state.DueDate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("later entry updates at expected version", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockReviewStore(t)
		entry := newEntry(t)

		mock.ExpectExec("UPDATE review_states").
			WithArgs(entry.UserID, entry.CardID, entry.Repetitions, entry.EaseFactor, entry.Interval,
				entry.DueDate, entry.LastRating, entry.ReviewedAt, int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO review_log").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

		state, err := s.Append(context.Background(), entry, 3)
		require.NoError(t, err)
		assert.Equal(t, int64(4), state.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("moved version is a conflict and writes no log row", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockReviewStore(t)

		mock.ExpectExec("UPDATE review_states").
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := s.Append(context.Background(), newEntry(t), 2)
		assert.ErrorIs(t, err, store.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent first review is a conflict", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockReviewStore(t)

		mock.ExpectExec("INSERT INTO review_states").
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := s.Append(context.Background(), newEntry(t), 0)
		assert.ErrorIs(t, err, store.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown card maps to card not found", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockReviewStore(t)

		mock.ExpectExec("INSERT INTO review_states").
			WillReturnError(newTestPgError(foreignKeyViolationCode))

		_, err := s.Append(context.Background(), newEntry(t), 0)
		assert.ErrorIs(t, err, store.ErrCardNotFound)
	})

	t.Run("invalid entry is rejected before any statement", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockReviewStore(t)
		entry := newEntry(t)
		entry.EaseFactor = 1.0

		_, err := s.Append(context.Background(), entry, 0)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrEaseFactorBelowMin)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("interval above the maximum is rejected before any query", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockReviewStore(t)
		entry := newEntry(t)
		entry.Interval = domain.MaxInterval + 1
		entry.DueDate = entry.ReviewedAt.AddDate(0, 0, entry.Interval)

		_, err := s.Append(context.Background(), entry, 0)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrIntervalTooLarge)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("due date outside the timestamp range is rejected", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockReviewStore(t)
		entry := newEntry(t)
		entry.ReviewedAt = domain.MaxStorableTime.Add(-time.Minute)
		entry.DueDate = entry.ReviewedAt.AddDate(0, 0, entry.Interval)

		_, err := s.Append(context.Background(), entry, 0)
		assert.ErrorIs(t, err, domain.ErrTimeOutOfRange)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative expected version is rejected", func(t *testing.T) {
		t.Parallel()
		s, _ := newMockReviewStore(t)

		_, err := s.Append(context.Background(), newEntry(t), -1)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})
}

func TestPostgresReviewStore_GetState(t *testing.T) {
	t.Parallel()

	t.Run("missing pair", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockReviewStore(t)
		mock.ExpectQuery("SELECT .* FROM review_states").
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

		_, err := s.GetState(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, store.ErrReviewStateNotFound)
	})

	t.Run("for update locks the row", func(t *testing.T) {
		t.Parallel()
		s, mock := newMockReviewStore(t)
		entry := newEntry(t)

		mock.ExpectQuery("FOR UPDATE").
			WillReturnRows(sqlmock.NewRows([]string{
				"user_id", "card_id", "repetitions", "ease_factor", "interval_days",
				"due_date", "last_rating", "reviewed_at", "version",
			}).AddRow(entry.UserID.String(), entry.CardID.String(), 1, 2.6, 1, entry.DueDate, 5, entry.ReviewedAt, int64(1)))

		state, err := s.GetStateForUpdate(context.Background(), entry.UserID, entry.CardID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), state.Version)
		assert.Equal(t, 2.6, state.EaseFactor)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
