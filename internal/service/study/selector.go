package study

import (
	"bytes"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/studydeck-api/internal/domain"
)

// selectDue builds the due set of one deck. Cards without a state are
// synthesized as new and due at now.
func selectDue(
	cards []*domain.Card,
	states map[uuid.UUID]*domain.ReviewState,
	userID uuid.UUID,
	now time.Time,
	limit int,
) []domain.CardStudyInfo {
	due := make([]domain.CardStudyInfo, 0, len(cards))
	for _, card := range cards {
		state, ok := states[card.ID]
		if !ok {
			state = domain.NewReviewState(userID, card.ID, now)
		} else if !state.IsDue(now) {
			continue
		}
		due = append(due, domain.NewCardStudyInfo(card, state))
	}

	slices.SortFunc(due, func(a, b domain.CardStudyInfo) int {
		if c := a.DueDate.Compare(b.DueDate); c != 0 {
			return c
		}
		return bytes.Compare(a.CardID[:], b.CardID[:])
	})

	if len(due) > limit {
		due = due[:limit]
	}
	return due
}

// normalizeLimit applies the limit policy: non-positive selects def and
// anything above maxLimit is clamped.
func normalizeLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
