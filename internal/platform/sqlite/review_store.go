package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/studydeck-api/internal/domain"
	"github.com/phrazzld/studydeck-api/internal/platform/logger"
	"github.com/phrazzld/studydeck-api/internal/store"
)

const stateColumns = `user_id, card_id, repetitions, ease_factor, interval_days,
	due_date, last_rating, reviewed_at, version`

const entryColumns = `id, user_id, card_id, reviewed_at, ease_factor, interval_days,
	repetitions, last_rating, due_date`

// ReviewStore implements store.ReviewStore on SQLite.
type ReviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewReviewStore creates a SQLite ReviewStore. If logger is nil, a default logger will be used.
func NewReviewStore(db store.DBTX, logger *slog.Logger) *ReviewStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewStore{db: db, logger: logger.With(slog.String("component", "review_store"))}
}

var _ store.ReviewStore = (*ReviewStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (*domain.ReviewState, error) {
	var (
		s               domain.ReviewState
		due, reviewedAt int64
	)
	err := row.Scan(
		&s.UserID, &s.CardID, &s.Repetitions, &s.EaseFactor, &s.Interval,
		&due, &s.LastRating, &reviewedAt, &s.Version,
	)
	if err != nil {
		return nil, err
	}
	s.DueDate = fromMicros(due)
	s.ReviewedAt = fromMicros(reviewedAt)
	return &s, nil
}

func scanEntry(row rowScanner) (*domain.ReviewLogEntry, error) {
	var (
		e               domain.ReviewLogEntry
		reviewedAt, due int64
	)
	err := row.Scan(
		&e.ID, &e.UserID, &e.CardID, &reviewedAt, &e.EaseFactor, &e.Interval,
		&e.Repetitions, &e.LastRating, &due,
	)
	if err != nil {
		return nil, err
	}
	e.ReviewedAt = fromMicros(reviewedAt)
	e.DueDate = fromMicros(due)
	return &e, nil
}

// GetState implements store.ReviewStore.GetState
func (s *ReviewStore) GetState(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewState, error) {
	state, err := scanState(s.db.QueryRowContext(ctx,
		`SELECT `+stateColumns+` FROM review_states WHERE user_id = ? AND card_id = ?`, userID, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewStateNotFound
		}
		return nil, store.NewStoreError("review_state", "get_state", "query failed", MapError(err))
	}
	return state, nil
}

// GetStateForUpdate implements store.ReviewStore.GetStateForUpdate. SQLite has
// no row locks; the immediate transaction already holds the write lock.
func (s *ReviewStore) GetStateForUpdate(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewState, error) {
	return s.GetState(ctx, userID, cardID)
}

// Append implements store.ReviewStore.Append
func (s *ReviewStore) Append(
	ctx context.Context,
	entry *domain.ReviewLogEntry,
	expectedVersion int64,
) (*domain.ReviewState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", entry.UserID.String()),
		slog.String("card_id", entry.CardID.String()),
		slog.Int64("expected_version", expectedVersion),
	)

	if expectedVersion < 0 {
		return nil, fmt.Errorf("%w: negative expected version %d", store.ErrInvalidEntity, expectedVersion)
	}
	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	reviewedAt, due := toMicros(entry.ReviewedAt), toMicros(entry.DueDate)

	var (
		result sql.Result
		err    error
	)
	if expectedVersion == 0 {
		result, err = s.db.ExecContext(ctx, `
			INSERT INTO review_states (`+stateColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT (user_id, card_id) DO NOTHING`,
			entry.UserID, entry.CardID, entry.Repetitions, entry.EaseFactor, entry.Interval,
			due, entry.LastRating, reviewedAt,
		)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE review_states
			SET repetitions = ?, ease_factor = ?, interval_days = ?, due_date = ?,
				last_rating = ?, reviewed_at = ?, version = version + 1
			WHERE user_id = ? AND card_id = ? AND version = ?`,
			entry.Repetitions, entry.EaseFactor, entry.Interval, due,
			entry.LastRating, reviewedAt, entry.UserID, entry.CardID, expectedVersion,
		)
	}
	if err != nil {
		return nil, s.appendError(log, "advance projection failed", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return nil, store.NewStoreError("review_state", "append", "advance projection failed", err)
	}
	if n == 0 {
		log.Debug("review state version moved, append rejected")
		return nil, store.NewStoreError("review_state", "append", "version moved", store.ErrConcurrencyConflict)
	}

	result, err = s.db.ExecContext(ctx, `
		INSERT INTO review_log (user_id, card_id, reviewed_at, ease_factor, interval_days,
			repetitions, last_rating, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.UserID, entry.CardID, reviewedAt, entry.EaseFactor, entry.Interval,
		entry.Repetitions, entry.LastRating, due,
	)
	if err != nil {
		return nil, s.appendError(log, "insert log entry failed", err)
	}
	if entry.ID, err = result.LastInsertId(); err != nil {
		return nil, store.NewStoreError("review_log", "append", "read entry id failed", err)
	}

	return domain.StateFromEntry(entry, expectedVersion+1), nil
}

func (s *ReviewStore) appendError(log *slog.Logger, msg string, err error) error {
	if IsForeignKeyViolation(err) {
		return store.ErrCardNotFound
	}
	log.Error(msg, slog.String("error", err.Error()))
	return store.NewStoreError("review_log", "append", msg, MapError(err))
}

// ListStatesByDeck implements store.ReviewStore.ListStatesByDeck
func (s *ReviewStore) ListStatesByDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (map[uuid.UUID]*domain.ReviewState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.user_id, s.card_id, s.repetitions, s.ease_factor, s.interval_days,
			s.due_date, s.last_rating, s.reviewed_at, s.version
		FROM review_states s
		JOIN cards c ON c.id = s.card_id
		WHERE s.user_id = ? AND c.deck_id = ?`, userID, deckID)
	if err != nil {
		return nil, store.NewStoreError("review_state", "list_by_deck", "query failed", MapError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	states := make(map[uuid.UUID]*domain.ReviewState)
	for rows.Next() {
		state, err := scanState(rows)
		if err != nil {
			return nil, store.NewStoreError("review_state", "list_by_deck", "scan failed", err)
		}
		states[state.CardID] = state
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("review_state", "list_by_deck", "iteration failed", MapError(err))
	}
	return states, nil
}

// LatestEntry implements store.ReviewStore.LatestEntry
func (s *ReviewStore) LatestEntry(ctx context.Context, userID, cardID uuid.UUID) (*domain.ReviewLogEntry, error) {
	entry, err := scanEntry(s.db.QueryRowContext(ctx, `
		SELECT `+entryColumns+` FROM review_log
		WHERE user_id = ? AND card_id = ?
		ORDER BY reviewed_at DESC, id DESC
		LIMIT 1`, userID, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewStateNotFound
		}
		return nil, store.NewStoreError("review_log", "latest", "query failed", MapError(err))
	}
	return entry, nil
}

// ListHistory implements store.ReviewStore.ListHistory
func (s *ReviewStore) ListHistory(
	ctx context.Context,
	userID, cardID uuid.UUID,
	limit int,
) ([]*domain.ReviewLogEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+entryColumns+` FROM review_log
		WHERE user_id = ? AND card_id = ?
		ORDER BY reviewed_at DESC, id DESC
		LIMIT ?`, userID, cardID, limit)
	if err != nil {
		return nil, store.NewStoreError("review_log", "history", "query failed", MapError(err))
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	entries := make([]*domain.ReviewLogEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, store.NewStoreError("review_log", "history", "scan failed", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, store.NewStoreError("review_log", "history", "iteration failed", MapError(err))
	}
	return entries, nil
}

// RebuildProjection implements store.ReviewStore.RebuildProjection
func (s *ReviewStore) RebuildProjection(ctx context.Context, userID *uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var userArg any
	if userID != nil {
		userArg = userID.String()
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM review_states WHERE ? IS NULL OR user_id = ?`, userArg, userArg,
	); err != nil {
		return 0, store.NewStoreError("review_state", "rebuild", "clear failed", MapError(err))
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO review_states (`+stateColumns+`)
		SELECT user_id, card_id, repetitions, ease_factor, interval_days,
			due_date, last_rating, reviewed_at, entries
		FROM (
			SELECT l.*,
				ROW_NUMBER() OVER (PARTITION BY user_id, card_id ORDER BY reviewed_at DESC, id DESC) AS rn,
				COUNT(*) OVER (PARTITION BY user_id, card_id) AS entries
			FROM review_log l
			WHERE ? IS NULL OR l.user_id = ?
		)
		WHERE rn = 1`, userArg, userArg)
	if err != nil {
		return 0, store.NewStoreError("review_state", "rebuild", "insert failed", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, store.NewStoreError("review_state", "rebuild", "insert failed", err)
	}

	log.Info("review state projection rebuilt", slog.Int64("rows", n))
	return n, nil
}

// WithTx implements store.ReviewStore.WithTx
func (s *ReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return &ReviewStore{db: tx, logger: s.logger}
}
