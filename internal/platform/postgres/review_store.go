package postgres

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

// PostgresReviewStore implements store.ReviewStore on the review_log and
// review_states tables.
type PostgresReviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewStore creates a new PostgreSQL implementation of the ReviewStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresReviewStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_store")),
	}
}

var _ store.ReviewStore = (*PostgresReviewStore)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (*domain.ReviewState, error) {
	var s domain.ReviewState
	err := row.Scan(
		&s.UserID, &s.CardID, &s.Repetitions, &s.EaseFactor, &s.Interval,
		&s.DueDate, &s.LastRating, &s.ReviewedAt, &s.Version,
	)
	if err != nil {
		return nil, err
	}
	s.DueDate = s.DueDate.UTC()
	s.ReviewedAt = s.ReviewedAt.UTC()
	return &s, nil
}

func scanEntry(row rowScanner) (*domain.ReviewLogEntry, error) {
	var e domain.ReviewLogEntry
	err := row.Scan(
		&e.ID, &e.UserID, &e.CardID, &e.ReviewedAt, &e.EaseFactor, &e.Interval,
		&e.Repetitions, &e.LastRating, &e.DueDate,
	)
	if err != nil {
		return nil, err
	}
	e.ReviewedAt = e.ReviewedAt.UTC()
	e.DueDate = e.DueDate.UTC()
	return &e, nil
}

// GetState implements store.ReviewStore.GetState
func (s *PostgresReviewStore) GetState(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (*domain.ReviewState, error) {
	query := `SELECT ` + stateColumns + ` FROM review_states WHERE user_id = $1 AND card_id = $2`
	return s.getState(ctx, "get_state", query, userID, cardID)
}

// GetStateForUpdate implements store.ReviewStore.GetStateForUpdate.
// The projection row stays locked until the surrounding transaction ends.
func (s *PostgresReviewStore) GetStateForUpdate(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (*domain.ReviewState, error) {
	query := `SELECT ` + stateColumns + ` FROM review_states
		WHERE user_id = $1 AND card_id = $2
		FOR UPDATE`
	return s.getState(ctx, "get_state_for_update", query, userID, cardID)
}

func (s *PostgresReviewStore) getState(
	ctx context.Context,
	op, query string,
	userID, cardID uuid.UUID,
) (*domain.ReviewState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	state, err := scanState(s.db.QueryRowContext(ctx, query, userID, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewStateNotFound
		}
		log.Error("failed to read review state",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("card_id", cardID.String()))
		return nil, store.NewStoreError("review_state", op, "query failed", MapError(err))
	}
	return state, nil
}

// Append implements store.ReviewStore.Append
//
// The projection is advanced first so that a lost race is detected before the
// log row is written.
func (s *PostgresReviewStore) Append(
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
		log.Warn("review entry validation failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	var (
		result sql.Result
		err    error
	)
	if expectedVersion == 0 {
		result, err = s.db.ExecContext(ctx, `
			INSERT INTO review_states (`+stateColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
			ON CONFLICT (user_id, card_id) DO NOTHING`,
			entry.UserID, entry.CardID, entry.Repetitions, entry.EaseFactor, entry.Interval,
			entry.DueDate, entry.LastRating, entry.ReviewedAt,
		)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE review_states
			SET repetitions = $3, ease_factor = $4, interval_days = $5, due_date = $6,
				last_rating = $7, reviewed_at = $8, version = version + 1
			WHERE user_id = $1 AND card_id = $2 AND version = $9`,
			entry.UserID, entry.CardID, entry.Repetitions, entry.EaseFactor, entry.Interval,
			entry.DueDate, entry.LastRating, entry.ReviewedAt, expectedVersion,
		)
	}
	if err != nil {
		return nil, s.appendError(log, "advance projection failed", err)
	}

	n, err := rowsAffected(result)
	if err != nil {
		return nil, store.NewStoreError("review_state", "append", "advance projection failed", err)
	}
	if n == 0 {
		log.Debug("review state version moved, append rejected")
		return nil, store.NewStoreError("review_state", "append", "version moved", store.ErrConcurrencyConflict)
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO review_log (user_id, card_id, reviewed_at, ease_factor, interval_days,
			repetitions, last_rating, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		entry.UserID, entry.CardID, entry.ReviewedAt, entry.EaseFactor, entry.Interval,
		entry.Repetitions, entry.LastRating, entry.DueDate,
	).Scan(&entry.ID)
	if err != nil {
		return nil, s.appendError(log, "insert log entry failed", err)
	}

	log.Debug("review appended", slog.Int64("entry_id", entry.ID))
	return domain.StateFromEntry(entry, expectedVersion+1), nil
}

func (s *PostgresReviewStore) appendError(log *slog.Logger, msg string, err error) error {
	if IsForeignKeyViolation(err) {
		return store.ErrCardNotFound
	}
	log.Error(msg, slog.String("error", err.Error()))
	return store.NewStoreError("review_log", "append", msg, MapError(err))
}

// ListStatesByDeck implements store.ReviewStore.ListStatesByDeck
func (s *PostgresReviewStore) ListStatesByDeck(
	ctx context.Context,
	userID, deckID uuid.UUID,
) (map[uuid.UUID]*domain.ReviewState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT s.user_id, s.card_id, s.repetitions, s.ease_factor, s.interval_days,
			s.due_date, s.last_rating, s.reviewed_at, s.version
		FROM review_states s
		JOIN cards c ON c.id = s.card_id
		WHERE s.user_id = $1 AND c.deck_id = $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID, deckID)
	if err != nil {
		log.Error("failed to list deck review states",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
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
func (s *PostgresReviewStore) LatestEntry(
	ctx context.Context,
	userID, cardID uuid.UUID,
) (*domain.ReviewLogEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM review_log
		WHERE user_id = $1 AND card_id = $2
		ORDER BY reviewed_at DESC, id DESC
		LIMIT 1`

	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, userID, cardID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrReviewStateNotFound
		}
		return nil, store.NewStoreError("review_log", "latest", "query failed", MapError(err))
	}
	return entry, nil
}

// ListHistory implements store.ReviewStore.ListHistory
func (s *PostgresReviewStore) ListHistory(
	ctx context.Context,
	userID, cardID uuid.UUID,
	limit int,
) ([]*domain.ReviewLogEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + entryColumns + ` FROM review_log
		WHERE user_id = $1 AND card_id = $2
		ORDER BY reviewed_at DESC, id DESC
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, userID, cardID, limit)
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
func (s *PostgresReviewStore) RebuildProjection(ctx context.Context, userID *uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var userArg any
	if userID != nil {
		userArg = *userID
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM review_states WHERE $1::uuid IS NULL OR user_id = $1::uuid`, userArg,
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
			WHERE $1::uuid IS NULL OR l.user_id = $1::uuid
		) ranked
		WHERE rn = 1`, userArg)
	if err != nil {
		log.Error("failed to rebuild review states", slog.String("error", err.Error()))
		return 0, store.NewStoreError("review_state", "rebuild", "insert failed", MapError(err))
	}

	n, err := rowsAffected(result)
	if err != nil {
		return 0, store.NewStoreError("review_state", "rebuild", "insert failed", err)
	}

	log.Info("review state projection rebuilt", slog.Int64("rows", n))
	return n, nil
}

// WithTx implements store.ReviewStore.WithTx
func (s *PostgresReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return &PostgresReviewStore{
		db:     tx,
		logger: s.logger,
	}
}
