package srs

import (
	"errors"
	"time"

	"github.com/phrazzld/studydeck-api/internal/domain"
)

// ErrNilState is returned when NextEntry is called without a prior state.
var ErrNilState = errors.New("review state cannot be nil")

// Service defines the interface for SRS algorithm operations
type Service interface {
	// Advance computes the next (repetitions, ease factor, interval) for a review
	// of the given quality. It fails with domain.ErrInvalidQuality for a quality
	// outside [0,5] and has no side effects.
	Advance(quality, repetitions int, easeFactor float64, interval int) (NextState, error)

	// DueDate returns base plus interval days.
	DueDate(interval int, base time.Time) time.Time

	// NextEntry computes the log entry that follows state for a review recorded at reviewedAt.
	NextEntry(state *domain.ReviewState, quality int, reviewedAt time.Time) (*domain.ReviewLogEntry, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

var _ Service = (*defaultService)(nil)

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() (Service, error) {
	return NewServiceWithParams(NewDefaultParams())
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) (Service, error) {
	if params == nil {
		return nil, ErrInvalidParams
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &defaultService{params: params}, nil
}

// Advance implements Service.
func (s *defaultService) Advance(
	quality, repetitions int,
	easeFactor float64,
	interval int,
) (NextState, error) {
	if err := domain.ValidateQuality(quality); err != nil {
		return NextState{}, err
	}
	return advance(quality, repetitions, easeFactor, interval, s.params), nil
}

// DueDate implements Service.
func (s *defaultService) DueDate(interval int, base time.Time) time.Time {
	return calculateDueDate(interval, base)
}

// NextEntry implements Service.
func (s *defaultService) NextEntry(
	state *domain.ReviewState,
	quality int,
	reviewedAt time.Time,
) (*domain.ReviewLogEntry, error) {
	if state == nil {
		return nil, ErrNilState
	}
	if err := domain.ValidateQuality(quality); err != nil {
		return nil, err
	}
	return calculateNextEntry(state, quality, reviewedAt, s.params), nil
}

// Advance runs one SM-2 step with the default parameters.
func Advance(quality, repetitions int, easeFactor float64, interval int) (NextState, error) {
	if err := domain.ValidateQuality(quality); err != nil {
		return NextState{}, err
	}
	return advance(quality, repetitions, easeFactor, interval, NewDefaultParams()), nil
}

// DueDate returns base plus interval days.
func DueDate(interval int, base time.Time) time.Time {
	return calculateDueDate(interval, base)
}
