package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/studydeck-api/internal/platform/postgres"
	"github.com/phrazzld/studydeck-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "review_states",
		ColumnName:     "card_id",
		ConstraintName: "review_states_card_id_fkey",
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{name: "no rows", err: sql.ErrNoRows, expected: store.ErrNotFound},
		{name: "unique violation", err: newPgError("23505"), expected: store.ErrDuplicate},
		{name: "foreign key violation", err: newPgError("23503"), expected: store.ErrInvalidEntity},
		{name: "check violation", err: newPgError("23514"), expected: store.ErrInvalidEntity},
		{name: "not null violation", err: newPgError("23502"), expected: store.ErrInvalidEntity},
		{name: "serialization failure", err: newPgError("40001"), expected: store.ErrConcurrencyConflict},
		{name: "deadlock", err: newPgError("40P01"), expected: store.ErrConcurrencyConflict},
		{name: "lock not available", err: newPgError("55P03"), expected: store.ErrConcurrencyConflict},
		{
			name:     "wrapped pg error",
			err:      fmt.Errorf("exec: %w", newPgError("40001")),
			expected: store.ErrConcurrencyConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.ErrorIs(t, postgres.MapError(tt.err), tt.expected)
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, postgres.MapError(nil))
	})

	t.Run("unknown errors pass through", func(t *testing.T) {
		t.Parallel()
		original := errors.New("connection reset")
		assert.Same(t, original, postgres.MapError(original))

		other := newPgError("XX000")
		assert.Equal(t, error(other), postgres.MapError(other))
	})
}

func TestConstraintPredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		unique     bool
		foreignKey bool
	}{
		{name: "unique", err: newPgError("23505"), unique: true},
		{name: "foreign key", err: newPgError("23503"), foreignKey: true},
		{name: "wrapped foreign key", err: fmt.Errorf("insert: %w", newPgError("23503")), foreignKey: true},
		{name: "other pg error", err: newPgError("23514")},
		{name: "plain error", err: errors.New("boom")},
		{name: "nil", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.unique, postgres.IsUniqueViolation(tt.err))
			assert.Equal(t, tt.foreignKey, postgres.IsForeignKeyViolation(tt.err))
		})
	}
}
