package study

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/studydeck-api/internal/domain"
	"github.com/phrazzld/studydeck-api/internal/domain/srs"
	"github.com/phrazzld/studydeck-api/internal/events"
	"github.com/phrazzld/studydeck-api/internal/platform/logger"
	"github.com/phrazzld/studydeck-api/internal/redact"
	"github.com/phrazzld/studydeck-api/internal/store"
	"golang.org/x/sync/errgroup"
)

// Default Options values
const (
	DefaultLimit              = 20
	DefaultMaxLimit           = 100
	DefaultMaxConflictRetries = 3
)

// Options tunes a StudyService. Zero values select the defaults.
type Options struct {
	// DefaultLimit is used when a caller passes a non-positive limit.
	DefaultLimit int
	// MaxLimit caps every limit.
	MaxLimit int
	// MaxConflictRetries is the number of extra attempts after a lost race.
	// A negative value disables retries.
	MaxConflictRetries int
	// Emitter receives a review.recorded event after each committed review.
	Emitter events.EventEmitter
	// Now replaces time.Now, for tests.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = DefaultLimit
	}
	if o.MaxLimit <= 0 {
		o.MaxLimit = DefaultMaxLimit
	}
	if o.MaxLimit < o.DefaultLimit {
		o.MaxLimit = o.DefaultLimit
	}
	if o.MaxConflictRetries == 0 {
		o.MaxConflictRetries = DefaultMaxConflictRetries
	} else if o.MaxConflictRetries < 0 {
		o.MaxConflictRetries = 0
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Verify interface compliance at compile time
var _ StudyService = (*studyServiceImpl)(nil)

type studyServiceImpl struct {
	db        *sql.DB
	cards     store.CardStore
	reviews   store.ReviewStore
	scheduler srs.Service
	opts      Options
	locks     *keyLocks
	logger    *slog.Logger
}

// NewStudyService creates a StudyService over the given stores. db is used to
// open the transaction of each review.
func NewStudyService(
	db *sql.DB,
	cards store.CardStore,
	reviews store.ReviewStore,
	scheduler srs.Service,
	opts Options,
	logger *slog.Logger,
) StudyService {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if cards == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("cards cannot be nil")
	}
	if reviews == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviews cannot be nil")
	}
	if scheduler == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("scheduler cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &studyServiceImpl{
		db:        db,
		cards:     cards,
		reviews:   reviews,
		scheduler: scheduler,
		opts:      opts.withDefaults(),
		locks:     newKeyLocks(),
		logger:    logger.With(slog.String("component", "study_service")),
	}
}

// now returns the current time in UTC at the storage precision.
func (s *studyServiceImpl) now() time.Time {
	return s.opts.Now().UTC().Truncate(time.Microsecond)
}

// RecordReview implements StudyService.RecordReview.
func (s *studyServiceImpl) RecordReview(
	ctx context.Context,
	userID, cardID uuid.UUID,
	quality int,
) (*domain.ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("card_id", cardID.String()),
	)

	if err := domain.ValidateQuality(quality); err != nil {
		log.Debug("rejected review quality", slog.Int("quality", quality))
		return nil, err
	}

	release, err := s.locks.acquire(ctx, pairKey{userID: userID, cardID: cardID})
	if err != nil {
		return nil, NewServiceError("record_review", "waiting for pair lock", err)
	}
	defer release()

	var entry *domain.ReviewLogEntry
	for attempt := 0; ; attempt++ {
		entry, err = s.recordOnce(ctx, userID, cardID, quality)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrConcurrencyConflict) {
			return nil, s.recordError(log, err)
		}
		if attempt >= s.opts.MaxConflictRetries {
			log.Warn("review conflict retries exhausted", slog.Int("attempts", attempt+1))
			return nil, NewServiceError("record_review", "retries exhausted",
				fmt.Errorf("%w: %w", ErrConcurrencyConflict, err))
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, NewServiceError("record_review", "cancelled during retry", ctxErr)
		}
		log.Debug("review lost a race, retrying", slog.Int("attempt", attempt+1))
	}

	result := &domain.ReviewResult{
		CardID:      cardID,
		Quality:     quality,
		Repetitions: entry.Repetitions,
		EaseFactor:  entry.EaseFactor,
		Interval:    entry.Interval,
		DueDate:     entry.DueDate,
		ReviewedAt:  entry.ReviewedAt,
	}

	log.Debug("review recorded",
		slog.Int("quality", quality),
		slog.Float64("ease_factor", result.EaseFactor),
		slog.Int("interval", result.Interval),
		slog.Time("due_date", result.DueDate))

	s.emitRecorded(ctx, log, userID, result)
	return result, nil
}

// recordOnce runs one read-compute-append in its own transaction.
func (s *studyServiceImpl) recordOnce(
	ctx context.Context,
	userID, cardID uuid.UUID,
	quality int,
) (*domain.ReviewLogEntry, error) {
	var entry *domain.ReviewLogEntry

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		reviews := s.reviews.WithTx(tx)

		if _, err := s.cards.WithTx(tx).GetByID(ctx, cardID); err != nil {
			if errors.Is(err, store.ErrCardNotFound) {
				return ErrCardNotFound
			}
			return fmt.Errorf("failed to get card: %w", err)
		}

		now := s.now()
		state, err := reviews.GetStateForUpdate(ctx, userID, cardID)
		switch {
		case errors.Is(err, store.ErrReviewStateNotFound):
			state = domain.NewReviewState(userID, cardID, now)
		case err != nil:
			return fmt.Errorf("failed to get review state: %w", err)
		}

		// Keep the log ordered by reviewed_at even if this clock is behind the
		// instance that wrote the previous entry.
		reviewedAt := now
		if !state.IsNew() && state.ReviewedAt.After(reviewedAt) {
			reviewedAt = state.ReviewedAt
		}

		next, err := s.scheduler.NextEntry(state, quality, reviewedAt)
		if err != nil {
			return fmt.Errorf("failed to calculate next review: %w", err)
		}

		if _, err := reviews.Append(ctx, next, state.Version); err != nil {
			if errors.Is(err, store.ErrCardNotFound) {
				return ErrCardNotFound
			}
			return err
		}

		entry = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *studyServiceImpl) recordError(log *slog.Logger, err error) error {
	if errors.Is(err, ErrCardNotFound) {
		log.Debug("review for unknown card")
		return ErrCardNotFound
	}
	log.Error("failed to record review", slog.String("error", redact.Error(err)))
	return NewServiceError("record_review", "failed to record review", err)
}

// emitRecorded publishes the review. The review is already committed, so
// failures are only logged.
func (s *studyServiceImpl) emitRecorded(
	ctx context.Context,
	log *slog.Logger,
	userID uuid.UUID,
	result *domain.ReviewResult,
) {
	if s.opts.Emitter == nil {
		return
	}

	event, err := events.NewReviewRecordedEvent(events.ReviewRecorded{
		UserID:      userID,
		CardID:      result.CardID,
		Quality:     result.Quality,
		Repetitions: result.Repetitions,
		EaseFactor:  result.EaseFactor,
		Interval:    result.Interval,
		DueDate:     result.DueDate,
		ReviewedAt:  result.ReviewedAt,
	})
	if err == nil {
		err = s.opts.Emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		log.Warn("failed to emit review event", slog.String("error", err.Error()))
	}
}

// GetDueCards implements StudyService.GetDueCards.
func (s *studyServiceImpl) GetDueCards(
	ctx context.Context,
	deckID, userID uuid.UUID,
	limit int,
) ([]domain.CardStudyInfo, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("deck_id", deckID.String()),
	)

	limit = normalizeLimit(limit, s.opts.DefaultLimit, s.opts.MaxLimit)
	now := s.now()

	var (
		cards  []*domain.Card
		states map[uuid.UUID]*domain.ReviewState
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cards, err = s.cards.ListByDeck(gctx, deckID)
		return err
	})
	g.Go(func() error {
		var err error
		states, err = s.reviews.ListStatesByDeck(gctx, userID, deckID)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Error("failed to load due set", slog.String("error", redact.Error(err)))
		return nil, NewServiceError("get_due_cards", "failed to load deck", err)
	}

	due := selectDue(cards, states, userID, now, limit)
	log.Debug("selected due cards",
		slog.Int("deck_cards", len(cards)),
		slog.Int("due", len(due)),
		slog.Int("limit", limit))
	return due, nil
}

// GetReviewHistory implements StudyService.GetReviewHistory.
func (s *studyServiceImpl) GetReviewHistory(
	ctx context.Context,
	userID, cardID uuid.UUID,
	limit int,
) ([]*domain.ReviewLogEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.cards.GetByID(ctx, cardID); err != nil {
		if errors.Is(err, store.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, NewServiceError("get_review_history", "failed to get card", err)
	}

	entries, err := s.reviews.ListHistory(ctx, userID, cardID,
		normalizeLimit(limit, s.opts.DefaultLimit, s.opts.MaxLimit))
	if err != nil {
		log.Error("failed to list review history",
			slog.String("error", redact.Error(err)),
			slog.String("card_id", cardID.String()))
		return nil, NewServiceError("get_review_history", "failed to list history", err)
	}
	return entries, nil
}

// RebuildProjection implements StudyService.RebuildProjection.
func (s *studyServiceImpl) RebuildProjection(ctx context.Context, userID *uuid.UUID) (int64, error) {
	var n int64
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		var err error
		n, err = s.reviews.WithTx(tx).RebuildProjection(ctx, userID)
		return err
	})
	if err != nil {
		return 0, NewServiceError("rebuild_projection", "failed to rebuild projection", err)
	}
	return n, nil
}
