package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardFrontEmpty is returned when a card has no front text.
	ErrCardFrontEmpty = errors.New("card front cannot be empty")

	// ErrCardBackEmpty is returned when a card has no back text.
	ErrCardBackEmpty = errors.New("card back cannot be empty")
)

// Card is a flashcard belonging to a deck. Cards are owned by the deck/card
// collaborator; the scheduling engine only reads them.
type Card struct {
	ID        uuid.UUID `json:"id"`
	DeckID    uuid.UUID `json:"deck_id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCard creates a Card in the given deck with a fresh ID and timestamps.
func NewCard(deckID uuid.UUID, front, back string) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:        uuid.New(),
		DeckID:    deckID,
		Front:     front,
		Back:      back,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return fmt.Errorf("%w: %w", ErrValidation, ErrCardIDEmpty)
	}
	if c.DeckID == uuid.Nil {
		return fmt.Errorf("%w: %w", ErrValidation, ErrCardDeckIDEmpty)
	}
	if strings.TrimSpace(c.Front) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrCardFrontEmpty)
	}
	if strings.TrimSpace(c.Back) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrCardBackEmpty)
	}
	return nil
}
