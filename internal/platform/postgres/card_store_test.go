//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/studydeck-api/internal/domain"
	"github.com/phrazzld/studydeck-api/internal/platform/postgres"
	"github.com/phrazzld/studydeck-api/internal/store"
	"github.com/phrazzld/studydeck-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresCardStore(t *testing.T) {
	t.Parallel()
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		cards := postgres.NewPostgresCardStore(tx, nil)
		deckID := uuid.New()

		a, err := domain.NewCard(deckID, "capital of France", "Paris")
		require.NoError(t, err)
		b, err := domain.NewCard(deckID, "capital of Peru", "Lima")
		require.NoError(t, err)
		require.NoError(t, cards.Create(ctx, a))
		require.NoError(t, cards.Create(ctx, b))

		err = cards.Create(ctx, a)
		assert.ErrorIs(t, err, store.ErrCardExists)

		got, err := cards.GetByID(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "Paris", got.Back)

		_, err = cards.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrCardNotFound)

		listed, err := cards.ListByDeck(ctx, deckID)
		require.NoError(t, err)
		assert.Len(t, listed, 2)

		empty, err := cards.ListByDeck(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, empty)

		invalid := &domain.Card{ID: uuid.New(), DeckID: deckID, Front: "", Back: "x"}
		assert.ErrorIs(t, cards.Create(ctx, invalid), store.ErrInvalidEntity)
	})
}
