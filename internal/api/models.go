package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/studydeck-api/internal/domain"
)

// RecordReviewRequest is the body of POST /api/study/cards/{cardID}/reviews.
// Quality is a pointer so that a missing field is distinguished from 0.
type RecordReviewRequest struct {
	Quality *int `json:"quality" validate:"required,min=0,max=5"`
}

// ReviewHistoryEntry is one element of a card's review history.
type ReviewHistoryEntry struct {
	ID          int64     `json:"id"`
	CardID      uuid.UUID `json:"card_id"`
	Quality     int       `json:"quality"`
	Repetitions int       `json:"repetitions"`
	EaseFactor  float64   `json:"ease_factor"`
	Interval    int       `json:"interval"`
	DueDate     time.Time `json:"due_date"`
	ReviewedAt  time.Time `json:"reviewed_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func historyToResponse(entries []*domain.ReviewLogEntry) []ReviewHistoryEntry {
	out := make([]ReviewHistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ReviewHistoryEntry{
			ID:          e.ID,
			CardID:      e.CardID,
			Quality:     e.LastRating,
			Repetitions: e.Repetitions,
			EaseFactor:  e.EaseFactor,
			Interval:    e.Interval,
			DueDate:     e.DueDate,
			ReviewedAt:  e.ReviewedAt,
		})
	}
	return out
}
