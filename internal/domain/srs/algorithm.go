package srs

import (
	"math"
	"time"

	"github.com/phrazzld/studydeck-api/internal/domain"
)

// NextState is the output of one SM-2 step.
type NextState struct {
	Repetitions int
	EaseFactor  float64
	Interval    int
}

// clampEaseFactor raises ef to the configured floor. Values below the floor are
// treated as the floor, never rejected.
func clampEaseFactor(ef float64, params *Params) float64 {
	if ef < params.MinEaseFactor {
		return params.MinEaseFactor
	}
	return ef
}

// calculateNewEaseFactor applies the SM-2 ease update
//
//	EF' = EF + (0.1 - (5-q) * (0.08 + (5-q) * 0.02))
//
// to the clamped incoming ease factor and clamps the result again. The update
// only increases EF for a perfect grade, holds it for q=4 and lowers it by a
// growing amount as the grade worsens.
func calculateNewEaseFactor(currentEF float64, quality int, params *Params) float64 {
	ef := clampEaseFactor(currentEF, params)
	miss := float64(domain.MaxQuality - quality)
	return clampEaseFactor(ef+(0.1-miss*(0.08+miss*0.02)), params)
}

// calculateNewInterval picks the next interval in days.
//
// Failed recalls always restart at RelearnInterval and discard the incoming
// interval. Successful recalls walk FirstInterval, SecondInterval and then grow
// the incoming interval by the new ease factor. The result never exceeds
// params.MaxInterval.
func calculateNewInterval(
	quality int,
	newRepetitions int,
	currentInterval int,
	newEF float64,
	params *Params,
) int {
	if quality < params.PassingQuality {
		return params.RelearnInterval
	}

	switch newRepetitions {
	case 1:
		return params.FirstInterval
	case 2:
		return params.SecondInterval
	default:
		return min(roundInterval(float64(currentInterval)*newEF), params.MaxInterval)
	}
}

// roundInterval rounds half to even. 12.5 becomes 12 and 7.5 becomes 8.
// Products too large for an int saturate at math.MaxInt.
func roundInterval(days float64) int {
	rounded := math.RoundToEven(days)
	if rounded >= math.MaxInt {
		return math.MaxInt
	}
	return int(rounded)
}

// advance runs one SM-2 step. quality must already be validated.
func advance(quality, repetitions int, easeFactor float64, interval int, params *Params) NextState {
	if repetitions < 0 {
		repetitions = 0
	}
	if interval < 0 {
		interval = 0
	}

	newEF := calculateNewEaseFactor(easeFactor, quality, params)

	newRepetitions := 0
	if quality >= params.PassingQuality {
		newRepetitions = repetitions + 1
	}

	return NextState{
		Repetitions: newRepetitions,
		EaseFactor:  newEF,
		Interval:    calculateNewInterval(quality, newRepetitions, interval, newEF, params),
	}
}

// calculateDueDate adds interval calendar days to base, keeping the wall-clock time.
func calculateDueDate(interval int, base time.Time) time.Time {
	return base.AddDate(0, 0, interval)
}

// calculateNextEntry builds the log entry that follows state after a review of
// the given quality recorded at reviewedAt.
func calculateNextEntry(
	state *domain.ReviewState,
	quality int,
	reviewedAt time.Time,
	params *Params,
) *domain.ReviewLogEntry {
	next := advance(quality, state.Repetitions, state.EaseFactor, state.Interval, params)

	return &domain.ReviewLogEntry{
		UserID:      state.UserID,
		CardID:      state.CardID,
		ReviewedAt:  reviewedAt,
		EaseFactor:  next.EaseFactor,
		Interval:    next.Interval,
		Repetitions: next.Repetitions,
		LastRating:  quality,
		DueDate:     calculateDueDate(next.Interval, reviewedAt),
	}
}
