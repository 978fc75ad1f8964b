package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/studydeck-api/internal/domain"
)

// ReviewStore persists the append-only review log together with the
// review_states projection that caches the latest entry of every pair.
//
// The log is the source of truth. The projection row of a pair always equals the
// pair's latest log entry and carries a version equal to the number of entries.
type ReviewStore interface {
	// GetState returns the projected current state of a pair.
	// Returns ErrReviewStateNotFound for a pair with no history.
	GetState(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewState, error)

	// GetStateForUpdate is GetState with a row lock where the backend supports it.
	// It must be called inside a transaction.
	GetStateForUpdate(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewState, error)

	// Append inserts entry into the log and advances the projection from
	// expectedVersion to expectedVersion+1 in the same statement batch.
	// Returns ErrConcurrencyConflict when the projection is no longer at
	// expectedVersion; the caller's transaction must then be rolled back.
	// Append must run inside a transaction so the log row and the projection
	// update commit or roll back together.
	Append(ctx context.Context, entry *domain.ReviewLogEntry, expectedVersion int64) (*domain.ReviewState, error)

	// ListStatesByDeck returns the projected states of userID for the cards of
	// deckID that have history, keyed by card ID.
	ListStatesByDeck(ctx context.Context, userID, deckID uuid.UUID) (map[uuid.UUID]*domain.ReviewState, error)

	// LatestEntry reads the latest log entry of a pair directly from the log,
	// ordered by reviewed_at and then insertion order.
	// Returns ErrReviewStateNotFound for a pair with no history.
	LatestEntry(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewLogEntry, error)

	// ListHistory returns up to limit log entries of a pair, newest first.
	ListHistory(ctx context.Context, userID, cardID uuid.UUID, limit int) ([]*domain.ReviewLogEntry, error)

	// RebuildProjection re-derives review_states from the log for one user, or
	// for every user when userID is nil, and returns the number of rows written.
	// It must be called inside a transaction.
	RebuildProjection(ctx context.Context, userID *uuid.UUID) (int64, error)

	// WithTx returns a ReviewStore bound to tx.
	WithTx(tx *sql.Tx) ReviewStore
}
