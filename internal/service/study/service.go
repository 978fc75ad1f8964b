package study

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/studydeck-api/internal/domain"
)

// StudyService records reviews and answers due-set queries for the
// spaced-repetition engine.
type StudyService interface {
	// RecordReview applies a review of the given quality to the (user, card)
	// pair and appends exactly one log entry.
	//
	// Returns:
	//   - ErrInvalidQuality before any I/O when quality is outside [0,5]
	//   - ErrCardNotFound when the card does not exist; nothing is written
	//   - a ServiceError wrapping ErrConcurrencyConflict when every retry lost
	//     a race for the pair; nothing is written
	//
	// Calls for the same pair are serialized; calls for different pairs never
	// wait on each other.
	RecordReview(ctx context.Context, userID, cardID uuid.UUID, quality int) (*domain.ReviewResult, error)

	// GetDueCards returns up to limit cards of the deck that are due for the
	// user, ordered by due date and then card ID. Never-reviewed cards are
	// always due. A limit of zero or less selects the configured default and
	// larger limits are clamped. An unknown deck yields an empty slice.
	GetDueCards(ctx context.Context, deckID, userID uuid.UUID, limit int) ([]domain.CardStudyInfo, error)

	// GetReviewHistory returns up to limit log entries of the pair, newest first.
	// Returns ErrCardNotFound when the card does not exist.
	GetReviewHistory(ctx context.Context, userID, cardID uuid.UUID, limit int) ([]*domain.ReviewLogEntry, error)

	// RebuildProjection re-derives the review-state projection from the log for
	// one user, or for every user when userID is nil, in a single transaction.
	RebuildProjection(ctx context.Context, userID *uuid.UUID) (int64, error)
}

// Common error types for StudyService
var (
	// ErrInvalidQuality indicates a quality rating outside [0,5].
	ErrInvalidQuality = domain.ErrInvalidQuality

	// ErrCardNotFound indicates that the card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrConcurrencyConflict indicates that concurrent reviews of the same pair
	// kept winning the race until the retry budget ran out. It is transient.
	ErrConcurrencyConflict = errors.New("review state changed concurrently")
)

// ServiceError wraps errors from the study service with additional context.
// This allows consumers to differentiate between different types of service errors
// using errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "record_review", "get_due_cards")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError returns a new ServiceError for operation.
func NewServiceError(operation, message string, err error) *ServiceError {
	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
