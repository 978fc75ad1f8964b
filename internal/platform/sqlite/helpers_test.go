package sqlite_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/studydeck-api/internal/domain"
	"github.com/phrazzld/studydeck-api/internal/platform/sqlite"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "study.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, sqlite.Migrate(ctx, db))
	return db
}

func mustCreateCard(t *testing.T, db *sql.DB, deckID uuid.UUID) *domain.Card {
	t.Helper()

	card, err := domain.NewCard(deckID, "front "+uuid.NewString()[:8], "back")
	require.NoError(t, err)
	require.NoError(t, sqlite.NewCardStore(db, nil).Create(context.Background(), card))
	return card
}

func entryAt(userID, cardID uuid.UUID, reviewedAt time.Time, reps, interval int, ef float64, rating int) *domain.ReviewLogEntry {
	return &domain.ReviewLogEntry{
		UserID:      userID,
		CardID:      cardID,
		ReviewedAt:  reviewedAt,
		EaseFactor:  ef,
		Interval:    interval,
		Repetitions: reps,
		LastRating:  rating,
		DueDate:     reviewedAt.AddDate(0, 0, interval),
	}
}
