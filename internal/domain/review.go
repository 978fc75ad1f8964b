package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Scheduling constants shared by the log, the calculator and the selector.
const (
	// MinQuality and MaxQuality bound a quality rating.
	MinQuality = 0
	MaxQuality = 5

	// PassingQuality is the lowest rating that counts as a successful recall.
	PassingQuality = 3

	// DefaultEaseFactor is the ease factor of a pair that has never been reviewed.
	DefaultEaseFactor = 2.5

	// MinEaseFactor is the floor applied to every ease factor that is read or written.
	MinEaseFactor = 1.3

	// MaxInterval is the longest interval, in days, a log entry may carry.
	MaxInterval = 36500
)

// Timestamps outside [MinStorableTime, MaxStorableTime] cannot round-trip through
// RFC 3339 JSON or the stores, so entries carrying them are rejected.
var (
	MinStorableTime = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	MaxStorableTime = time.Date(9999, time.December, 31, 23, 59, 59, 999999000, time.UTC)
)

// Review log validation errors
var (
	ErrEmptyReviewUserID   = errors.New("review user ID cannot be empty")
	ErrEmptyReviewCardID   = errors.New("review card ID cannot be empty")
	ErrEaseFactorBelowMin  = errors.New("ease factor must be at least 1.3")
	ErrNegativeInterval    = errors.New("interval must be greater than or equal to 0")
	ErrIntervalTooLarge    = errors.New("interval exceeds the maximum interval")
	ErrTimeOutOfRange      = errors.New("timestamp outside the storable range")
	ErrNegativeRepetitions = errors.New("repetitions must be greater than or equal to 0")
	ErrDueDateMismatch     = errors.New("due date must equal reviewed_at plus interval days")
)

// ValidateQuality reports ErrInvalidQuality when q is outside [MinQuality, MaxQuality].
func ValidateQuality(q int) error {
	if q < MinQuality || q > MaxQuality {
		return fmt.Errorf("%w: got %d", ErrInvalidQuality, q)
	}
	return nil
}

// ReviewLogEntry is one immutable row of the review log. Entries are only ever
// appended; the current state of a pair is the entry with the latest ReviewedAt.
type ReviewLogEntry struct {
	ID          int64     `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	CardID      uuid.UUID `json:"card_id"`
	ReviewedAt  time.Time `json:"reviewed_at"`
	EaseFactor  float64   `json:"ease_factor"`
	Interval    int       `json:"interval"`
	Repetitions int       `json:"repetitions"`
	LastRating  int       `json:"last_rating"`
	DueDate     time.Time `json:"due_date"`
}

// Validate checks the invariants every persisted entry must satisfy.
func (e *ReviewLogEntry) Validate() error {
	if e.UserID == uuid.Nil {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyReviewUserID)
	}
	if e.CardID == uuid.Nil {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyReviewCardID)
	}
	if e.EaseFactor < MinEaseFactor {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEaseFactorBelowMin)
	}
	if e.Interval < 0 {
		return fmt.Errorf("%w: %w", ErrValidation, ErrNegativeInterval)
	}
	if e.Interval > MaxInterval {
		return fmt.Errorf("%w: %w: %d days", ErrValidation, ErrIntervalTooLarge, e.Interval)
	}
	if e.Repetitions < 0 {
		return fmt.Errorf("%w: %w", ErrValidation, ErrNegativeRepetitions)
	}
	if err := ValidateQuality(e.LastRating); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if !IsStorableTime(e.ReviewedAt) || !IsStorableTime(e.DueDate) {
		return fmt.Errorf("%w: %w", ErrValidation, ErrTimeOutOfRange)
	}
	if !e.DueDate.Equal(e.ReviewedAt.AddDate(0, 0, e.Interval)) {
		return fmt.Errorf("%w: %w", ErrValidation, ErrDueDateMismatch)
	}
	return nil
}

// IsStorableTime reports whether t lies within [MinStorableTime, MaxStorableTime].
func IsStorableTime(t time.Time) bool {
	return !t.Before(MinStorableTime) && !t.After(MaxStorableTime)
}

// ReviewState is the current learning state of one (user, card) pair. It is
// either the defaults for a never-reviewed pair or a copy of the latest log entry.
//
// Version counts the entries appended for the pair and is used for optimistic
// concurrency on the materialized projection; it is 0 for a pair with no entries.
type ReviewState struct {
	UserID      uuid.UUID `json:"user_id"`
	CardID      uuid.UUID `json:"card_id"`
	Repetitions int       `json:"repetitions"`
	EaseFactor  float64   `json:"ease_factor"`
	Interval    int       `json:"interval"`
	DueDate     time.Time `json:"due_date"`
	LastRating  int       `json:"last_rating"`
	ReviewedAt  time.Time `json:"reviewed_at"`
	Version     int64     `json:"version"`
}

// NewReviewState returns the implicit default state of a pair with no history:
// no repetitions, the default ease factor, a zero interval, due at now.
func NewReviewState(userID, cardID uuid.UUID, now time.Time) *ReviewState {
	return &ReviewState{
		UserID:     userID,
		CardID:     cardID,
		EaseFactor: DefaultEaseFactor,
		DueDate:    now,
	}
}

// IsNew reports whether the pair has never been reviewed.
func (s *ReviewState) IsNew() bool {
	return s.Version == 0
}

// IsDue reports whether the state is due at now. A due date equal to now is due.
func (s *ReviewState) IsDue(now time.Time) bool {
	return !s.DueDate.After(now)
}

// StateFromEntry builds the projection row for entry at the given version.
func StateFromEntry(entry *ReviewLogEntry, version int64) *ReviewState {
	return &ReviewState{
		UserID:      entry.UserID,
		CardID:      entry.CardID,
		Repetitions: entry.Repetitions,
		EaseFactor:  entry.EaseFactor,
		Interval:    entry.Interval,
		DueDate:     entry.DueDate,
		LastRating:  entry.LastRating,
		ReviewedAt:  entry.ReviewedAt,
		Version:     version,
	}
}

// ReviewResult is returned to the caller of RecordReview.
type ReviewResult struct {
	CardID      uuid.UUID `json:"card_id"`
	Quality     int       `json:"quality"`
	Repetitions int       `json:"repetitions"`
	EaseFactor  float64   `json:"ease_factor"`
	Interval    int       `json:"interval"`
	DueDate     time.Time `json:"due_date"`
	ReviewedAt  time.Time `json:"reviewed_at"`
}

// CardStudyInfo is one element of a due set: the card content together with the
// effective scheduling parameters (synthesized for never-reviewed cards).
type CardStudyInfo struct {
	CardID      uuid.UUID `json:"card_id"`
	DeckID      uuid.UUID `json:"deck_id"`
	Front       string    `json:"front"`
	Back        string    `json:"back"`
	EaseFactor  float64   `json:"ease_factor"`
	Interval    int       `json:"interval"`
	Repetitions int       `json:"repetitions"`
	DueDate     time.Time `json:"due_date"`
	IsNew       bool      `json:"is_new"`
}

// NewCardStudyInfo combines a card with its effective review state.
func NewCardStudyInfo(card *Card, state *ReviewState) CardStudyInfo {
	return CardStudyInfo{
		CardID:      card.ID,
		DeckID:      card.DeckID,
		Front:       card.Front,
		Back:        card.Back,
		EaseFactor:  state.EaseFactor,
		Interval:    state.Interval,
		Repetitions: state.Repetitions,
		DueDate:     state.DueDate,
		IsNew:       state.IsNew(),
	}
}
