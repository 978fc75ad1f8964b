package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/studydeck-api/internal/domain"
)

// CardStore is the card-catalog collaborator as seen by the scheduling engine.
// Card ownership, editing and moderation live elsewhere; the engine needs
// existence checks, deck membership and display content.
type CardStore interface {
	// Create saves a new card. Returns ErrInvalidEntity for cards that fail
	// domain validation and ErrCardExists for a duplicate ID.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByDeck returns every card of the deck ordered by ID.
	// An unknown deck yields an empty slice, not an error.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// WithTx returns a CardStore bound to tx.
	WithTx(tx *sql.Tx) CardStore
}
