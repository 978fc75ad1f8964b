// Package stats keeps aggregate review counts per user.
//
// Counts are fed by the review.recorded event and are advisory: they are never
// read back by the scheduler, and a lost increment does not affect scheduling.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/studydeck-api/internal/domain"
)

// Summary is the aggregate of every review a user has recorded.
type Summary struct {
	Total     int64    `json:"total"`
	Passed    int64    `json:"passed"`
	Failed    int64    `json:"failed"`
	ByQuality [6]int64 `json:"by_quality"`
}

// Add counts one review of the given quality.
func (s *Summary) Add(quality int) {
	s.Total++
	if quality >= domain.PassingQuality {
		s.Passed++
	} else {
		s.Failed++
	}
	s.ByQuality[quality]++
}

// Counter records reviews and reports per-user summaries. Implementations
// must be safe for concurrent use.
type Counter interface {
	Record(ctx context.Context, userID uuid.UUID, quality int) error
	Summary(ctx context.Context, userID uuid.UUID) (Summary, error)
}

// ErrNilUser is returned when a review is recorded without a user.
var ErrNilUser = errors.New("stats: user ID cannot be empty")

// ValidateRecord checks the arguments of a Counter.Record call.
func ValidateRecord(userID uuid.UUID, quality int) error {
	if userID == uuid.Nil {
		return ErrNilUser
	}
	if err := domain.ValidateQuality(quality); err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	return nil
}

// InMemoryCounter is a Counter kept in process memory.
type InMemoryCounter struct {
	mu    sync.Mutex
	users map[uuid.UUID]*Summary
}

var _ Counter = (*InMemoryCounter)(nil)

// NewInMemoryCounter returns an empty counter.
func NewInMemoryCounter() *InMemoryCounter {
	return &InMemoryCounter{users: make(map[uuid.UUID]*Summary)}
}

// Record implements Counter.
func (c *InMemoryCounter) Record(_ context.Context, userID uuid.UUID, quality int) error {
	if err := ValidateRecord(userID, quality); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.users[userID]
	if !ok {
		s = &Summary{}
		c.users[userID] = s
	}
	s.Add(quality)
	return nil
}

// Summary implements Counter. A user with no reviews has a zero Summary.
func (c *InMemoryCounter) Summary(_ context.Context, userID uuid.UUID) (Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.users[userID]; ok {
		return *s, nil
	}
	return Summary{}, nil
}
